package stream

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// --- getStringAttr Tests ---

func TestGetStringAttr(t *testing.T) {
	tests := []struct {
		name  string
		image map[string]events.DynamoDBAttributeValue
		key   string
		want  string
	}{
		{
			"existing string",
			map[string]events.DynamoDBAttributeValue{"kind": events.NewStringAttribute("Boat")},
			"kind", "Boat",
		},
		{
			"wrong type",
			map[string]events.DynamoDBAttributeValue{"kind": events.NewNumberAttribute("7")},
			"kind", "",
		},
		{
			"missing key",
			map[string]events.DynamoDBAttributeValue{"other": events.NewStringAttribute("x")},
			"kind", "",
		},
		{"empty image", map[string]events.DynamoDBAttributeValue{}, "kind", ""},
		{"nil image", nil, "kind", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getStringAttr(tt.image, tt.key); got != tt.want {
				t.Errorf("getStringAttr(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

// --- getNumberAttr Tests ---

func TestGetNumberAttr(t *testing.T) {
	tests := []struct {
		name  string
		image map[string]events.DynamoDBAttributeValue
		key   string
		want  int64
	}{
		{
			"valid number",
			map[string]events.DynamoDBAttributeValue{"id": events.NewNumberAttribute("1234")},
			"id", 1234,
		},
		{
			"wrong type",
			map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute("1234")},
			"id", 0,
		},
		{
			"missing key",
			map[string]events.DynamoDBAttributeValue{"other": events.NewNumberAttribute("1")},
			"id", 0,
		},
		{"nil image", nil, "id", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getNumberAttr(tt.image, tt.key); got != tt.want {
				t.Errorf("getNumberAttr(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}

// --- ConvertStreamKey Tests ---

func TestConvertStreamKey(t *testing.T) {
	streamKey := map[string]events.DynamoDBAttributeValue{
		"id":   events.NewNumberAttribute("42"),
		"name": events.NewStringAttribute("Sea Witch"),
		"blob": events.NewBinaryAttribute([]byte{0x01, 0x02}),
	}

	pk := ConvertStreamKey(streamKey)

	if v, ok := pk["id"].(*types.AttributeValueMemberN); !ok || v.Value != "42" {
		t.Errorf("expected numeric id 42, got %+v", pk["id"])
	}
	if v, ok := pk["name"].(*types.AttributeValueMemberS); !ok || v.Value != "Sea Witch" {
		t.Errorf("expected string name, got %+v", pk["name"])
	}
	if v, ok := pk["blob"].(*types.AttributeValueMemberB); !ok || len(v.Value) != 2 {
		t.Errorf("expected binary attr, got %+v", pk["blob"])
	}
}

func TestConvertStreamKey_Empty(t *testing.T) {
	pk := ConvertStreamKey(map[string]events.DynamoDBAttributeValue{})
	if len(pk) != 0 {
		t.Errorf("expected empty pk, got %+v", pk)
	}
}

// --- processRecord skip paths ---
// These paths return before any store call, so a nil store is safe.

func TestProcessRecord_IgnoresNonRemove(t *testing.T) {
	h := NewHandler(nil, nil)
	record := events.DynamoDBEventRecord{
		EventName: "MODIFY",
		Change: events.DynamoDBStreamRecord{
			OldImage: map[string]events.DynamoDBAttributeValue{
				"kind": events.NewStringAttribute("Boat"),
				"id":   events.NewNumberAttribute("1"),
			},
		},
	}

	if err := h.processRecord(context.Background(), record); err != nil {
		t.Errorf("expected MODIFY ignored, got %v", err)
	}
}

func TestProcessRecord_IgnoresNonBoat(t *testing.T) {
	h := NewHandler(nil, nil)
	record := events.DynamoDBEventRecord{
		EventName: "REMOVE",
		Change: events.DynamoDBStreamRecord{
			OldImage: map[string]events.DynamoDBAttributeValue{
				"kind": events.NewStringAttribute("Load"),
				"id":   events.NewNumberAttribute("1"),
			},
		},
	}

	if err := h.processRecord(context.Background(), record); err != nil {
		t.Errorf("expected load removal ignored, got %v", err)
	}
}

func TestProcessRecord_IgnoresMissingID(t *testing.T) {
	h := NewHandler(nil, nil)
	record := events.DynamoDBEventRecord{
		EventName: "REMOVE",
		Change: events.DynamoDBStreamRecord{
			OldImage: map[string]events.DynamoDBAttributeValue{
				"kind": events.NewStringAttribute("Boat"),
			},
		},
	}

	if err := h.processRecord(context.Background(), record); err != nil {
		t.Errorf("expected record without id ignored, got %v", err)
	}
}

func TestNewHandler_NilLoggerDefaults(t *testing.T) {
	h := NewHandler(nil, nil)
	if h.logger == nil {
		t.Error("expected default logger")
	}
}
