package proto

// ChannelLink asks the receiver to establish an audio link between the
// sender's sending channel and a receiving channel. An auxiliary
// sending channel links to the peer device as a whole and may omit the
// receiving channel; any other kind must name one, which Encode
// enforces.
type ChannelLink struct {
	Header
	SendingChannel   ChannelID
	ReceivingChannel *ChannelID
}

func (m *ChannelLink) Type() string { return TagChannelLink }

func decodeChannelLink(obj map[string]any, outbound bool) (*ChannelLink, error) {
	header, err := decodeHeader(obj, TagChannelLink, outbound, false)
	if err != nil {
		return nil, err
	}
	sending, receiving, err := decodeLinkChannels(obj)
	if err != nil {
		return nil, err
	}
	return &ChannelLink{Header: header, SendingChannel: sending, ReceivingChannel: receiving}, nil
}

func (m *ChannelLink) Encode() (map[string]any, error) {
	obj := map[string]any{}
	m.Header.encodeInto(obj, TagChannelLink)
	if err := encodeLinkChannels(obj, m.SendingChannel, m.ReceivingChannel); err != nil {
		return nil, err
	}
	return obj, nil
}

// ChannelUnlink tears down an audio link. Its shape and rules mirror
// ChannelLink exactly.
type ChannelUnlink struct {
	Header
	SendingChannel   ChannelID
	ReceivingChannel *ChannelID
}

func (m *ChannelUnlink) Type() string { return TagChannelUnlink }

func decodeChannelUnlink(obj map[string]any, outbound bool) (*ChannelUnlink, error) {
	header, err := decodeHeader(obj, TagChannelUnlink, outbound, false)
	if err != nil {
		return nil, err
	}
	sending, receiving, err := decodeLinkChannels(obj)
	if err != nil {
		return nil, err
	}
	return &ChannelUnlink{Header: header, SendingChannel: sending, ReceivingChannel: receiving}, nil
}

func (m *ChannelUnlink) Encode() (map[string]any, error) {
	obj := map[string]any{}
	m.Header.encodeInto(obj, TagChannelUnlink)
	if err := encodeLinkChannels(obj, m.SendingChannel, m.ReceivingChannel); err != nil {
		return nil, err
	}
	return obj, nil
}

// decodeLinkChannels reads the sending channel from its prefixed field
// names and, when at least one of the default fields is present, the
// receiving channel from the default names. Whether the receiving
// channel is allowed to be absent depends on the sending channel's
// kind, but decode is lenient about it; Encode performs that check.
func decodeLinkChannels(obj map[string]any) (ChannelID, *ChannelID, error) {
	sending, err := DecodeChannelID(obj, FieldSendingChannelIndex, FieldSendingChannelType)
	if err != nil {
		return ChannelID{}, nil, err
	}
	_, haveIndex := obj[FieldChannelIndex]
	_, haveType := obj[FieldChannelType]
	if !haveIndex && !haveType {
		return sending, nil, nil
	}
	receiving, err := DecodeChannelID(obj, FieldChannelIndex, FieldChannelType)
	if err != nil {
		return ChannelID{}, nil, err
	}
	return sending, &receiving, nil
}

func encodeLinkChannels(obj map[string]any, sending ChannelID, receiving *ChannelID) error {
	sending.AppendTo(obj, FieldSendingChannelIndex, FieldSendingChannelType)
	if !sending.IsAux() && receiving == nil {
		return newError(ConstraintViolation, FieldChannelIndex, "only an auxiliary sending channel may omit the receiving channel (sending channel is %s)", sending)
	}
	if receiving != nil {
		receiving.AppendTo(obj, FieldChannelIndex, FieldChannelType)
	}
	return nil
}
