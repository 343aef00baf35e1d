package proto

import "slices"

// Enum is a string value constrained to a fixed, ordered set of
// allowed values. An Enum is always constructible; validity is a
// derived predicate, not an invariant of construction.
type Enum struct {
	Value  string
	Values []string
}

// IsValid reports whether the allowed set is non-empty and contains
// the current value.
func (e Enum) IsValid() bool {
	if len(e.Values) == 0 {
		return false
	}
	return slices.Contains(e.Values, e.Value)
}

// Equal compares two enums structurally. Comparing an invalid enum is
// an InvalidState error.
func (e Enum) Equal(other Enum) (bool, error) {
	if !e.IsValid() || !other.IsValid() {
		return false, newError(InvalidState, "", "cannot compare invalid enum values")
	}
	return e.Value == other.Value && slices.Equal(e.Values, other.Values), nil
}
