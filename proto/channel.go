package proto

import "fmt"

// ChannelKind is the closed set of routing channel kinds. The wire
// encoding is the small integer discriminant.
type ChannelKind int

const (
	Transmit  ChannelKind = 0
	Receive   ChannelKind = 1
	Auxiliary ChannelKind = 2
)

func (k ChannelKind) String() string {
	switch k {
	case Transmit:
		return "tx"
	case Receive:
		return "rx"
	case Auxiliary:
		return "aux"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Default wire field names for a channel identity. ChannelLink and
// ChannelUnlink address their sending channel with the prefixed names.
const (
	FieldChannelIndex        = "channelIndex"
	FieldChannelType         = "channelType"
	FieldSendingChannelIndex = "sendingChannelIndex"
	FieldSendingChannelType  = "sendingChannelType"
)

// ChannelID identifies one routable channel on a device. Equality is
// structural.
type ChannelID struct {
	Kind  ChannelKind
	Index uint16
}

func (c ChannelID) String() string {
	return fmt.Sprintf("%s/%d", c.Kind, c.Index)
}

// IsAux reports whether the channel is an auxiliary channel. Auxiliary
// channels link to a device as a whole, so messages carrying one may
// omit the peer channel.
func (c ChannelID) IsAux() bool {
	return c.Kind == Auxiliary
}

// DecodeChannelID reads a channel identity from obj using the given
// field names. Both fields are required.
func DecodeChannelID(obj map[string]any, indexField, typeField string) (ChannelID, error) {
	rawType, ok := obj[typeField]
	if !ok {
		return ChannelID{}, newError(MissingField, typeField, "channel identity requires %s", typeField)
	}
	rawIndex, ok := obj[indexField]
	if !ok {
		return ChannelID{}, newError(MissingField, indexField, "channel identity requires %s", indexField)
	}
	kind, ok := asInt(rawType)
	if !ok {
		return ChannelID{}, newError(TypeMismatch, typeField, "must be an integer channel kind, got %v", rawType)
	}
	if kind < int64(Transmit) || kind > int64(Auxiliary) {
		return ChannelID{}, newError(TypeMismatch, typeField, "%d is not a channel kind (0=tx, 1=rx, 2=aux)", kind)
	}
	index, ok := asInt(rawIndex)
	if !ok || index < 0 {
		return ChannelID{}, newError(TypeMismatch, indexField, "must be a non-negative integer, got %v", rawIndex)
	}
	if index > 0xFFFF {
		return ChannelID{}, newError(ValueOutOfRange, indexField, "%d exceeds the 16-bit wire encoding", index)
	}
	return ChannelID{Kind: ChannelKind(kind), Index: uint16(index)}, nil
}

// AppendTo writes both identity fields into obj. Omission policy (for
// auxiliary sending channels) belongs to the owning message, not here.
func (c ChannelID) AppendTo(obj map[string]any, indexField, typeField string) {
	obj[indexField] = int(c.Index)
	obj[typeField] = int(c.Kind)
}
