package proto

// LinkedChannel records one established audio link: the peer device's
// name and the peer channel. Both fields must be populated.
type LinkedChannel struct {
	DeviceName string
	Channel    ChannelID
}

// DecodeLinkedChannel reads a linked-channel record from its wire
// object.
func DecodeLinkedChannel(obj map[string]any) (LinkedChannel, error) {
	raw, ok := obj["deviceName"]
	if !ok {
		return LinkedChannel{}, newError(MissingField, "deviceName", "linked channel record requires deviceName")
	}
	name, ok := asString(raw)
	if !ok {
		return LinkedChannel{}, newError(TypeMismatch, "deviceName", "deviceName must be a string")
	}
	if name == "" {
		return LinkedChannel{}, newError(ConstraintViolation, "deviceName", "deviceName cannot be empty")
	}
	channel, err := DecodeChannelID(obj, FieldChannelIndex, FieldChannelType)
	if err != nil {
		return LinkedChannel{}, err
	}
	return LinkedChannel{DeviceName: name, Channel: channel}, nil
}

// Encode produces the wire object for this record.
func (l LinkedChannel) Encode() (map[string]any, error) {
	if l.DeviceName == "" {
		return nil, newError(ConstraintViolation, "deviceName", "deviceName cannot be empty")
	}
	obj := map[string]any{"deviceName": l.DeviceName}
	l.Channel.AppendTo(obj, FieldChannelIndex, FieldChannelType)
	return obj, nil
}
