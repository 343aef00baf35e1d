package proto

import (
	"strings"
	"testing"
)

// testMessageID builds an assigned ID at midnight with the given
// sequence number.
func testMessageID(seq int) MessageID {
	return MessageID{Sequence: seq, set: true}
}

func TestDecode_MissingMessageType(t *testing.T) {
	_, err := Decode([]byte(`{"messageID":"000000000000","channelIndex":1}`), false)
	if !IsKind(err, MalformedMessage) {
		t.Fatalf("Expected MalformedMessage, got %v", err)
	}
	// The error should list the fields that were actually present.
	if !strings.Contains(err.Error(), "messageID") || !strings.Contains(err.Error(), "channelIndex") {
		t.Errorf("Expected error to enumerate present fields, got %q", err.Error())
	}
}

func TestDecode_UnknownMessageType(t *testing.T) {
	_, err := Decode([]byte(`{"messageType":"bogus","messageID":"000000000000"}`), false)
	if !IsKind(err, UnknownMessageType) {
		t.Fatalf("Expected UnknownMessageType, got %v", err)
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("Expected error to name the received tag, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), TagChannelLink) || !strings.Contains(err.Error(), TagInfoResponse) {
		t.Errorf("Expected error to list the supported tags, got %q", err.Error())
	}
}

func TestDecode_NotAnObject(t *testing.T) {
	if _, err := Decode([]byte(`[1,2,3]`), false); !IsKind(err, MalformedMessage) {
		t.Errorf("Expected MalformedMessage for a JSON array, got %v", err)
	}
	if _, err := Decode([]byte(`not json`), false); !IsKind(err, MalformedMessage) {
		t.Errorf("Expected MalformedMessage for invalid JSON, got %v", err)
	}
}

func TestDecode_ChannelLink_AuxOmitsReceiving(t *testing.T) {
	raw := `{"messageType":"channelLink","messageID":"000000000000","sendingChannelType":2,"sendingChannelIndex":0}`
	msg, err := Decode([]byte(raw), false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	link, ok := msg.(*ChannelLink)
	if !ok {
		t.Fatalf("Expected *ChannelLink, got %T", msg)
	}
	if !link.SendingChannel.IsAux() || link.SendingChannel.Index != 0 {
		t.Errorf("Unexpected sending channel %v", link.SendingChannel)
	}
	if link.ReceivingChannel != nil {
		t.Errorf("Expected no receiving channel, got %v", *link.ReceivingChannel)
	}
}

func TestDecode_ChannelLink_WithReceiving(t *testing.T) {
	raw := `{
		"messageType":"channelLink",
		"messageID":"101530250001",
		"responseID":"101530250000",
		"sendingChannelType":0,
		"sendingChannelIndex":4,
		"channelType":1,
		"channelIndex":2
	}`
	msg, err := Decode([]byte(raw), true)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	link := msg.(*ChannelLink)
	if link.SendingChannel != (ChannelID{Kind: Transmit, Index: 4}) {
		t.Errorf("Unexpected sending channel %v", link.SendingChannel)
	}
	if link.ReceivingChannel == nil || *link.ReceivingChannel != (ChannelID{Kind: Receive, Index: 2}) {
		t.Errorf("Unexpected receiving channel %v", link.ReceivingChannel)
	}
	if !link.Outbound {
		t.Error("Expected outbound flag to be stored")
	}
	if link.ResponseID.IsZero() {
		t.Error("Expected responseID to be read")
	}
}

func TestDecode_ChannelLink_PartialReceivingFields(t *testing.T) {
	// One default field present means the receiving channel is being
	// attempted; the other missing field is an error, not silence.
	raw := `{"messageType":"channelLink","messageID":"000000000001","sendingChannelType":0,"sendingChannelIndex":4,"channelIndex":2}`
	if _, err := Decode([]byte(raw), false); !IsKind(err, MissingField) {
		t.Errorf("Expected MissingField, got %v", err)
	}
}

func TestDecode_ChannelLink_MissingMessageID(t *testing.T) {
	raw := `{"messageType":"channelLink","sendingChannelType":2,"sendingChannelIndex":0}`
	if _, err := Decode([]byte(raw), false); !IsKind(err, MalformedMessage) {
		t.Errorf("Expected MalformedMessage, got %v", err)
	}
}

func TestChannelLink_Encode_RequiresReceivingForNonAux(t *testing.T) {
	link := &ChannelLink{
		Header:         Header{SelfID: testMessageID(1)},
		SendingChannel: ChannelID{Kind: Transmit, Index: 0},
	}
	if _, err := link.Encode(); !IsKind(err, ConstraintViolation) {
		t.Errorf("Expected ConstraintViolation, got %v", err)
	}

	receiving := ChannelID{Kind: Receive, Index: 3}
	link.ReceivingChannel = &receiving
	if _, err := link.Encode(); err != nil {
		t.Errorf("Expected encode to succeed with a receiving channel, got %v", err)
	}
}

func TestChannelLink_Encode_AuxOmitsReceivingFields(t *testing.T) {
	link := &ChannelLink{
		Header:         Header{SelfID: testMessageID(1)},
		SendingChannel: ChannelID{Kind: Auxiliary, Index: 0},
	}
	obj, err := link.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, present := obj[FieldChannelIndex]; present {
		t.Error("Expected channelIndex to be omitted for an aux link")
	}
	if _, present := obj[FieldChannelType]; present {
		t.Error("Expected channelType to be omitted for an aux link")
	}
	if obj[FieldSendingChannelType] != 2 {
		t.Errorf("Expected sendingChannelType 2, got %v", obj[FieldSendingChannelType])
	}
}

func TestEncode_ZeroIDGeneratesWithoutMutating(t *testing.T) {
	link := &ChannelLink{SendingChannel: ChannelID{Kind: Auxiliary, Index: 1}}
	obj, err := link.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	idStr, ok := obj[fieldMessageID].(string)
	if !ok || len(idStr) != 12 {
		t.Fatalf("Expected a 12-digit generated messageID, got %v", obj[fieldMessageID])
	}
	if idStr == "000000000000" {
		t.Error("Expected a freshly generated ID, got the zero ID")
	}
	if !link.SelfID.IsZero() {
		t.Error("Encode must not mutate the in-memory message")
	}
}

func TestEncode_PreservesParsedMidnightID(t *testing.T) {
	raw := `{"messageType":"channelLink","messageID":"000000000000","sendingChannelType":2,"sendingChannelIndex":0}`
	msg, err := Decode([]byte(raw), false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	obj, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if obj[fieldMessageID] != "000000000000" {
		t.Errorf("Expected the midnight ID to survive re-encoding, got %v", obj[fieldMessageID])
	}
}

func TestEndResponse_Encode_MidnightResponseID(t *testing.T) {
	raw := `{"messageType":"endResponse","messageID":"120000000001","responseID":"000000000000"}`
	msg, err := Decode([]byte(raw), false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	obj, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if obj[fieldResponseID] != "000000000000" {
		t.Errorf("Expected responseID %q, got %v", "000000000000", obj[fieldResponseID])
	}
}

func TestDecode_ChannelUnlink(t *testing.T) {
	raw := `{"messageType":"channelUnlink","messageID":"120000000000","sendingChannelType":0,"sendingChannelIndex":1,"channelType":1,"channelIndex":2}`
	msg, err := Decode([]byte(raw), false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if _, ok := msg.(*ChannelUnlink); !ok {
		t.Fatalf("Expected *ChannelUnlink, got %T", msg)
	}
	if msg.Type() != TagChannelUnlink {
		t.Errorf("Unexpected tag %q", msg.Type())
	}
}

func TestDecode_EndResponse_RequiresResponseID(t *testing.T) {
	raw := `{"messageType":"endResponse","messageID":"120000000000"}`
	if _, err := Decode([]byte(raw), false); !IsKind(err, MissingField) {
		t.Errorf("Expected MissingField, got %v", err)
	}
}

func TestEndResponse_RoundTrip(t *testing.T) {
	end := &EndResponse{Header: Header{
		SelfID:     testMessageID(5),
		ResponseID: testMessageID(4),
	}}
	data, err := Marshal(end)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	msg, err := Decode(data, false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	decoded, ok := msg.(*EndResponse)
	if !ok {
		t.Fatalf("Expected *EndResponse, got %T", msg)
	}
	if decoded.ResponseID != end.ResponseID {
		t.Errorf("ResponseID mismatch: %v vs %v", decoded.ResponseID, end.ResponseID)
	}
}

func TestEndResponse_Encode_RequiresResponseID(t *testing.T) {
	end := &EndResponse{Header: Header{SelfID: testMessageID(5)}}
	if _, err := end.Encode(); !IsKind(err, ConstraintViolation) {
		t.Errorf("Expected ConstraintViolation, got %v", err)
	}
}

func TestErrorResponse_RoundTrip(t *testing.T) {
	errMsg := &ErrorResponse{
		Header: Header{
			SelfID:     testMessageID(9),
			ResponseID: testMessageID(8),
		},
		ErrorValue:  "ChannelNotFoundError",
		ErrorString: "no such channel rx/9",
	}
	data, err := Marshal(errMsg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	msg, err := Decode(data, false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	decoded := msg.(*ErrorResponse)
	if decoded.ErrorValue != errMsg.ErrorValue || decoded.ErrorString != errMsg.ErrorString {
		t.Errorf("Round trip mismatch: %+v", decoded)
	}
}

func TestDecode_ErrorResponse_MissingFields(t *testing.T) {
	raw := `{"messageType":"errorResponse","messageID":"120000000000","responseID":"120000000001","errorValue":"X"}`
	if _, err := Decode([]byte(raw), false); !IsKind(err, MissingField) {
		t.Errorf("Expected MissingField for absent errorString, got %v", err)
	}
}

func TestDecode_InfoRequest(t *testing.T) {
	raw := `{"messageType":"infoRequest","messageID":"120000000000","channelType":0,"channelIndex":5}`
	msg, err := Decode([]byte(raw), false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	req := msg.(*InfoRequest)
	if req.Channel != (ChannelID{Kind: Transmit, Index: 5}) {
		t.Errorf("Unexpected channel %v", req.Channel)
	}
}

func TestDecode_InfoRequest_MissingChannel(t *testing.T) {
	raw := `{"messageType":"infoRequest","messageID":"120000000000"}`
	if _, err := Decode([]byte(raw), false); !IsKind(err, MissingField) {
		t.Errorf("Expected MissingField, got %v", err)
	}
}

const infoResponseFixture = `{
	"messageType":"infoResponse",
	"messageID":"134501250000",
	"responseID":"134501200000",
	"channelType":0,
	"channelIndex":1,
	"linkedChannels":[
		{"deviceName":"stagebox-a","channelType":1,"channelIndex":3},
		{"deviceName":"console","channelType":1,"channelIndex":0}
	],
	"gain":{"dataType":"number","unit":"dB","value":4,"minValue":0,"maxValue":10,"precision":2,"readOnly":false},
	"muted":{"dataType":"bool","value":false,"readOnly":false},
	"inputMode":{"dataType":"enum","value":"mic","enumValues":["line","mic"],"readOnly":false}
}`

func TestDecode_InfoResponse_PartitionsKeys(t *testing.T) {
	msg, err := Decode([]byte(infoResponseFixture), false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	info, ok := msg.(*InfoResponse)
	if !ok {
		t.Fatalf("Expected *InfoResponse, got %T", msg)
	}

	if len(info.LinkedChannels) != 2 {
		t.Fatalf("Expected 2 linked channels, got %d", len(info.LinkedChannels))
	}
	// Array order must be preserved.
	if info.LinkedChannels[0].DeviceName != "stagebox-a" || info.LinkedChannels[1].DeviceName != "console" {
		t.Errorf("Linked channel order not preserved: %+v", info.LinkedChannels)
	}

	if len(info.Parameters) != 3 {
		t.Fatalf("Expected 3 parameters, got %d", len(info.Parameters))
	}
	for _, name := range []string{"gain", "muted", "inputMode"} {
		if _, present := info.Parameters[name]; !present {
			t.Errorf("Expected parameter %q", name)
		}
	}
	if gain := info.Parameters["gain"]; !gain.IsValid() {
		t.Errorf("Expected decoded gain parameter to be valid, violations: %v", gain.Violations())
	}
}

func TestDecode_InfoResponse_MissingLinkedChannels(t *testing.T) {
	raw := `{"messageType":"infoResponse","messageID":"134501250000","responseID":"134501200000","channelType":0,"channelIndex":1}`
	if _, err := Decode([]byte(raw), false); !IsKind(err, MissingField) {
		t.Errorf("Expected MissingField, got %v", err)
	}
}

func TestDecode_InfoResponse_UnknownShapedEntry(t *testing.T) {
	raw := `{
		"messageType":"infoResponse",
		"messageID":"134501250000",
		"responseID":"134501200000",
		"channelType":0,
		"channelIndex":1,
		"linkedChannels":[],
		"weird":"not an object"
	}`
	_, err := Decode([]byte(raw), false)
	if !IsKind(err, TypeMismatch) {
		t.Fatalf("Expected TypeMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "weird") {
		t.Errorf("Expected error to name the offending key, got %q", err.Error())
	}
}

func TestInfoResponse_Encode_EmitsResponseTag(t *testing.T) {
	msg, err := Decode([]byte(infoResponseFixture), false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	obj, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if obj[fieldMessageType] != TagInfoResponse {
		t.Errorf("Expected messageType %q, got %v", TagInfoResponse, obj[fieldMessageType])
	}
}

func TestInfoResponse_RoundTrip(t *testing.T) {
	msg, err := Decode([]byte(infoResponseFixture), false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	data, err := Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	again, err := Decode(data, false)
	if err != nil {
		t.Fatalf("Second decode failed: %v", err)
	}
	info := again.(*InfoResponse)
	if len(info.LinkedChannels) != 2 || len(info.Parameters) != 3 {
		t.Errorf("Round trip changed shape: %d links, %d parameters", len(info.LinkedChannels), len(info.Parameters))
	}
	if info.SelfID != msg.Head().SelfID || info.ResponseID != msg.Head().ResponseID {
		t.Errorf("Round trip changed IDs")
	}
}

func TestInfoResponse_Encode_ReservedParameterName(t *testing.T) {
	info := &InfoResponse{
		Header:     Header{SelfID: testMessageID(1), ResponseID: testMessageID(2)},
		Channel:    ChannelID{Kind: Transmit, Index: 1},
		Parameters: map[string]Parameter{},
	}
	p, _ := NewBoolParameter("linkedChannels", true, true)
	info.Parameters["linkedChannels"] = p
	if _, err := info.Encode(); !IsKind(err, ConstraintViolation) {
		t.Errorf("Expected ConstraintViolation for reserved parameter name, got %v", err)
	}
}

func TestDecode_OutboundFlagStoredNotWire(t *testing.T) {
	raw := `{"messageType":"endResponse","messageID":"120000000000","responseID":"120000000001"}`
	msg, err := Decode([]byte(raw), true)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !msg.Head().Outbound {
		t.Error("Expected outbound flag to be stored")
	}
	obj, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, present := obj["outbound"]; present {
		t.Error("The outbound flag must never appear on the wire")
	}
}
