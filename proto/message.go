// Package proto implements the Virgil control-message codec: the typed
// in-memory model of the JSON wire protocol used to configure and
// query audio-routing channels on networked devices, and the
// validation rules for each message shape.
//
// Decoding is strict about structure (required fields, types, closed
// enumerations) and aborts on the first violation; no partially
// populated message is ever returned. Construction of in-memory
// messages is deliberately lenient, and Encode re-validates the
// conditional invariants (such as the auxiliary-only omission of a
// receiving channel) before producing wire data.
package proto

import (
	"encoding/json"
	"strings"
)

// Wire values of the messageType tag.
const (
	TagChannelLink   = "channelLink"
	TagChannelUnlink = "channelUnlink"
	TagEndResponse   = "endResponse"
	TagErrorResponse = "errorResponse"
	TagInfoRequest   = "infoRequest"
	TagInfoResponse  = "infoResponse"
)

// Header fields common to every message.
const (
	fieldMessageType = "messageType"
	fieldMessageID   = "messageID"
	fieldResponseID  = "responseID"
)

// supportedTags is the closed set the dispatcher accepts, in a fixed
// order for error messages.
var supportedTags = []string{
	TagChannelLink,
	TagChannelUnlink,
	TagEndResponse,
	TagErrorResponse,
	TagInfoRequest,
	TagInfoResponse,
}

// Header is the part shared by every message variant. An unassigned
// ResponseID means the message answers nothing; variants that mandate
// response correlation reject an unassigned ResponseID at encode time.
// Outbound is local bookkeeping supplied by the caller at decode time;
// it is never carried on the wire and never flips the sender's
// perspective.
type Header struct {
	SelfID     MessageID
	ResponseID MessageID
	Outbound   bool
}

// Head exposes the shared header through the Message interface.
func (h Header) Head() Header { return h }

// encodeInto writes the header fields. An unassigned SelfID gets a
// freshly generated ID for this encoding call only; the in-memory
// message is not mutated.
func (h Header) encodeInto(obj map[string]any, tag string) {
	obj[fieldMessageType] = tag
	id := h.SelfID
	if id.IsZero() {
		id = GenerateID()
	}
	obj[fieldMessageID] = id.String()
	if !h.ResponseID.IsZero() {
		obj[fieldResponseID] = h.ResponseID.String()
	}
}

// Message is the sum of the concrete Virgil message variants.
type Message interface {
	// Type returns the wire tag of the variant.
	Type() string
	// Head returns the shared header.
	Head() Header
	// Encode re-validates the variant's conditional invariants and
	// produces its wire object.
	Encode() (map[string]any, error)
}

// Decode parses raw JSON and dispatches to the variant named by the
// messageType tag. This is the single entry point for arbitrary
// inbound data. outbound is stored on the resulting message for local
// bookkeeping.
func Decode(data []byte, outbound bool) (Message, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	return DecodeObject(obj, outbound)
}

// DecodeObject dispatches an already-parsed JSON object. Numbers in
// obj should be json.Number (as produced by Decode) to preserve the
// integer/fractional distinction, though native Go numbers are also
// accepted.
func DecodeObject(obj map[string]any, outbound bool) (Message, error) {
	raw, ok := obj[fieldMessageType]
	if !ok {
		return nil, newError(MalformedMessage, fieldMessageType, "object has no messageType; present fields: %s", objectKeys(obj))
	}
	tag, ok := asString(raw)
	if !ok {
		return nil, newError(MalformedMessage, fieldMessageType, "messageType must be a string, got %v", raw)
	}
	switch tag {
	case TagChannelLink:
		return decodeChannelLink(obj, outbound)
	case TagChannelUnlink:
		return decodeChannelUnlink(obj, outbound)
	case TagEndResponse:
		return decodeEndResponse(obj, outbound)
	case TagErrorResponse:
		return decodeErrorResponse(obj, outbound)
	case TagInfoRequest:
		return decodeInfoRequest(obj, outbound)
	case TagInfoResponse:
		return decodeInfoResponse(obj, outbound)
	default:
		return nil, newError(UnknownMessageType, fieldMessageType, "%q is not a known message type (supported: %s)", tag, strings.Join(supportedTags, ", "))
	}
}

// Marshal encodes a message to its JSON wire bytes.
func Marshal(m Message) ([]byte, error) {
	obj, err := m.Encode()
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// decodeHeader validates the fixed header of a variant: the tag must
// match, messageID must be present and well formed, and responseID is
// read when present (required when mandatory is set).
func decodeHeader(obj map[string]any, tag string, outbound, mandatoryResponse bool) (Header, error) {
	raw, ok := obj[fieldMessageType]
	if !ok {
		return Header{}, newError(MalformedMessage, fieldMessageType, "object has no messageType; present fields: %s", objectKeys(obj))
	}
	got, ok := asString(raw)
	if !ok || got != tag {
		return Header{}, newError(MalformedMessage, fieldMessageType, "expected %q, got %v; present fields: %s", tag, raw, objectKeys(obj))
	}
	rawID, ok := obj[fieldMessageID]
	if !ok {
		return Header{}, newError(MalformedMessage, fieldMessageID, "%s has no messageID; present fields: %s", tag, objectKeys(obj))
	}
	idStr, ok := asString(rawID)
	if !ok {
		return Header{}, newError(TypeMismatch, fieldMessageID, "messageID must be a string, got %v", rawID)
	}
	selfID, err := ParseMessageID(idStr)
	if err != nil {
		return Header{}, err
	}

	var responseID MessageID
	if rawResp, ok := obj[fieldResponseID]; ok {
		respStr, ok := asString(rawResp)
		if !ok {
			return Header{}, newError(TypeMismatch, fieldResponseID, "responseID must be a string, got %v", rawResp)
		}
		responseID, err = ParseMessageID(respStr)
		if err != nil {
			return Header{}, err
		}
	} else if mandatoryResponse {
		return Header{}, newError(MissingField, fieldResponseID, "%s requires a responseID", tag)
	}
	return Header{SelfID: selfID, ResponseID: responseID, Outbound: outbound}, nil
}
