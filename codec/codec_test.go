package codec

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleResponse() map[string]any {
	return map[string]any{
		"data": map[string]any{
			"user": map[string]any{
				"__typename": "User",
				"id":         "1",
				"name":       "Ada",
				"age":        float64(36),
				"tags":       []any{"admin", "ops"},
			},
		},
	}
}

func TestResponseShapePreserved(t *testing.T) {
	cases := []struct {
		name  string
		codec Codec[map[string]any]
	}{
		{"json", JSON[map[string]any]{}},
		{"cbor", MustCBOR[map[string]any](false)},
		{"cbor_deterministic", MustCBOR[map[string]any](true)},
		{"struct", Struct{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := sampleResponse()
			b, err := tc.codec.Encode(in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			out, err := tc.codec.Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(in, out); diff != "" {
				t.Fatalf("decoded response differs (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMsgpackNestedMapsAreStringKeyed(t *testing.T) {
	var c Msgpack[map[string]any]
	b, err := c.Encode(sampleResponse())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	data, ok := out["data"].(map[string]any)
	if !ok {
		t.Fatalf("data has type %T, want map[string]any", out["data"])
	}
	if _, ok := data["user"].(map[string]any); !ok {
		t.Fatalf("user has type %T, want map[string]any", data["user"])
	}
}

func TestStructRejectsNonJSONValues(t *testing.T) {
	if _, err := (Struct{}).Encode(map[string]any{"ch": make(chan int)}); err == nil {
		t.Fatalf("expected error for non-JSON value")
	}
}

func TestLimitCodec(t *testing.T) {
	c := LimitCodec[string]{Inner: String{}, MaxDecode: 4}

	if _, err := c.Decode([]byte("12345")); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected size error, got %v", err)
	}
	got, err := c.Decode([]byte("1234"))
	if err != nil || got != "1234" {
		t.Fatalf("Decode at limit: got %q err=%v", got, err)
	}

	unlimited := LimitCodec[string]{Inner: String{}}
	if _, err := unlimited.Decode([]byte(strings.Repeat("x", 1<<16))); err != nil {
		t.Fatalf("MaxDecode=0 should disable the limit: %v", err)
	}
}
