package proto

import (
	"encoding/json"
	"testing"
)

func TestDecodeChannelID_Valid(t *testing.T) {
	obj := map[string]any{
		"channelIndex": json.Number("3"),
		"channelType":  json.Number("1"),
	}
	id, err := DecodeChannelID(obj, FieldChannelIndex, FieldChannelType)
	if err != nil {
		t.Fatalf("DecodeChannelID failed: %v", err)
	}
	if id.Kind != Receive {
		t.Errorf("Expected kind rx, got %v", id.Kind)
	}
	if id.Index != 3 {
		t.Errorf("Expected index 3, got %d", id.Index)
	}
}

func TestDecodeChannelID_CustomFieldNames(t *testing.T) {
	obj := map[string]any{
		"sendingChannelIndex": json.Number("7"),
		"sendingChannelType":  json.Number("2"),
	}
	id, err := DecodeChannelID(obj, FieldSendingChannelIndex, FieldSendingChannelType)
	if err != nil {
		t.Fatalf("DecodeChannelID failed: %v", err)
	}
	if !id.IsAux() {
		t.Errorf("Expected aux channel, got %v", id.Kind)
	}
	if id.Index != 7 {
		t.Errorf("Expected index 7, got %d", id.Index)
	}
}

func TestDecodeChannelID_MissingFields(t *testing.T) {
	_, err := DecodeChannelID(map[string]any{"channelIndex": json.Number("1")}, FieldChannelIndex, FieldChannelType)
	if !IsKind(err, MissingField) {
		t.Errorf("Expected MissingField for absent type, got %v", err)
	}

	_, err = DecodeChannelID(map[string]any{"channelType": json.Number("0")}, FieldChannelIndex, FieldChannelType)
	if !IsKind(err, MissingField) {
		t.Errorf("Expected MissingField for absent index, got %v", err)
	}
}

func TestDecodeChannelID_BadKind(t *testing.T) {
	for _, raw := range []any{json.Number("3"), json.Number("-1"), "tx", json.Number("1.5")} {
		obj := map[string]any{"channelIndex": json.Number("0"), "channelType": raw}
		_, err := DecodeChannelID(obj, FieldChannelIndex, FieldChannelType)
		if !IsKind(err, TypeMismatch) {
			t.Errorf("Expected TypeMismatch for kind %v, got %v", raw, err)
		}
	}
}

func TestDecodeChannelID_BadIndex(t *testing.T) {
	obj := map[string]any{"channelIndex": json.Number("-2"), "channelType": json.Number("0")}
	if _, err := DecodeChannelID(obj, FieldChannelIndex, FieldChannelType); !IsKind(err, TypeMismatch) {
		t.Errorf("Expected TypeMismatch for negative index, got %v", err)
	}

	obj["channelIndex"] = json.Number("65536")
	if _, err := DecodeChannelID(obj, FieldChannelIndex, FieldChannelType); !IsKind(err, ValueOutOfRange) {
		t.Errorf("Expected ValueOutOfRange for 16-bit overflow, got %v", err)
	}
}

func TestChannelID_AppendTo(t *testing.T) {
	obj := map[string]any{}
	ChannelID{Kind: Transmit, Index: 12}.AppendTo(obj, FieldChannelIndex, FieldChannelType)

	if obj["channelIndex"] != 12 {
		t.Errorf("Expected channelIndex 12, got %v", obj["channelIndex"])
	}
	if obj["channelType"] != 0 {
		t.Errorf("Expected channelType 0, got %v", obj["channelType"])
	}

	id, err := DecodeChannelID(obj, FieldChannelIndex, FieldChannelType)
	if err != nil {
		t.Fatalf("Failed to decode appended identity: %v", err)
	}
	if id != (ChannelID{Kind: Transmit, Index: 12}) {
		t.Errorf("Round trip mismatch: %v", id)
	}
}
