package proto

import "sort"

// InfoRequest asks a device for the state of one channel.
type InfoRequest struct {
	Header
	Channel ChannelID
}

func (m *InfoRequest) Type() string { return TagInfoRequest }

func decodeInfoRequest(obj map[string]any, outbound bool) (*InfoRequest, error) {
	header, err := decodeHeader(obj, TagInfoRequest, outbound, false)
	if err != nil {
		return nil, err
	}
	channel, err := DecodeChannelID(obj, FieldChannelIndex, FieldChannelType)
	if err != nil {
		return nil, err
	}
	return &InfoRequest{Header: header, Channel: channel}, nil
}

func (m *InfoRequest) Encode() (map[string]any, error) {
	obj := map[string]any{}
	m.Header.encodeInto(obj, TagInfoRequest)
	m.Channel.AppendTo(obj, FieldChannelIndex, FieldChannelType)
	return obj, nil
}

// infoResponseReserved are the keys of an infoResponse object that are
// not parameter entries.
var infoResponseReserved = map[string]struct{}{
	fieldMessageType:  {},
	fieldMessageID:    {},
	fieldResponseID:   {},
	FieldChannelIndex: {},
	FieldChannelType:  {},
	"linkedChannels":  {},
}

// InfoResponse answers an InfoRequest with the channel's established
// links and its parameters. On the wire every key that is not part of
// the fixed header, the channel identity or the linkedChannels array
// is a parameter entry keyed by parameter name.
type InfoResponse struct {
	Header
	Channel        ChannelID
	LinkedChannels []LinkedChannel
	Parameters     map[string]Parameter
}

func (m *InfoResponse) Type() string { return TagInfoResponse }

func decodeInfoResponse(obj map[string]any, outbound bool) (*InfoResponse, error) {
	header, err := decodeHeader(obj, TagInfoResponse, outbound, true)
	if err != nil {
		return nil, err
	}
	channel, err := DecodeChannelID(obj, FieldChannelIndex, FieldChannelType)
	if err != nil {
		return nil, err
	}

	rawLinks, ok := obj["linkedChannels"]
	if !ok {
		return nil, newError(MissingField, "linkedChannels", "infoResponse requires linkedChannels")
	}
	list, ok := rawLinks.([]any)
	if !ok {
		return nil, newError(TypeMismatch, "linkedChannels", "linkedChannels must be an array, got %v", rawLinks)
	}
	links := make([]LinkedChannel, 0, len(list))
	for i, entry := range list {
		entryObj, ok := entry.(map[string]any)
		if !ok {
			return nil, newError(TypeMismatch, "linkedChannels", "entry %d must be an object", i)
		}
		link, err := DecodeLinkedChannel(entryObj)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	params := make(map[string]Parameter)
	// Deterministic traversal so the first error is stable for a given
	// input.
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, reserved := infoResponseReserved[key]; reserved {
			continue
		}
		entryObj, ok := obj[key].(map[string]any)
		if !ok {
			return nil, newError(TypeMismatch, key, "entry %q is neither a header field nor a parameter object", key)
		}
		param, err := DecodeParameter(key, entryObj)
		if err != nil {
			return nil, err
		}
		params[key] = param
	}

	return &InfoResponse{Header: header, Channel: channel, LinkedChannels: links, Parameters: params}, nil
}

func (m *InfoResponse) Encode() (map[string]any, error) {
	if m.ResponseID.IsZero() {
		return nil, newError(ConstraintViolation, fieldResponseID, "infoResponse requires a responseID")
	}
	obj := map[string]any{}
	m.Header.encodeInto(obj, TagInfoResponse)
	m.Channel.AppendTo(obj, FieldChannelIndex, FieldChannelType)

	links := make([]any, 0, len(m.LinkedChannels))
	for _, link := range m.LinkedChannels {
		encoded, err := link.Encode()
		if err != nil {
			return nil, err
		}
		links = append(links, encoded)
	}
	obj["linkedChannels"] = links

	for name, param := range m.Parameters {
		if _, reserved := infoResponseReserved[name]; reserved {
			return nil, newError(ConstraintViolation, name, "parameter name %q collides with a reserved infoResponse field", name)
		}
		if name != param.Name {
			return nil, newError(InvalidState, name, "parameter stored under %q is named %q", name, param.Name)
		}
		if err := param.AppendTo(obj); err != nil {
			return nil, err
		}
	}
	return obj, nil
}
