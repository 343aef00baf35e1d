package proto

import (
	"errors"
	"fmt"
)

// ErrorKind classifies codec failures so callers can react to the
// category without parsing error text.
type ErrorKind int

const (
	MalformedMessage ErrorKind = iota
	MissingField
	TypeMismatch
	ValueOutOfRange
	InvalidEnumValue
	ConstraintViolation
	UnknownMessageType
	InvalidState
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedMessage:
		return "malformed message"
	case MissingField:
		return "missing field"
	case TypeMismatch:
		return "type mismatch"
	case ValueOutOfRange:
		return "value out of range"
	case InvalidEnumValue:
		return "invalid enum value"
	case ConstraintViolation:
		return "constraint violation"
	case UnknownMessageType:
		return "unknown message type"
	case InvalidState:
		return "invalid state"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// ProtocolError is the single error type produced by the codec. Field
// names the offending JSON field or tag when one is known.
type ProtocolError struct {
	Kind   ErrorKind
	Field  string
	Detail string
}

func (e *ProtocolError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// KindOf reports the ErrorKind of err if it is (or wraps) a
// ProtocolError.
func KindOf(err error) (ErrorKind, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a ProtocolError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func newError(kind ErrorKind, field, format string, args ...any) *ProtocolError {
	return &ProtocolError{Kind: kind, Field: field, Detail: fmt.Sprintf(format, args...)}
}
