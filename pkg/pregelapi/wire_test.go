package pregelapi

import (
	"encoding/json"
	"testing"
)

func TestRawMessageMarshalsAsPair(t *testing.T) {
	m := RawMessage{VertexID: "v1", Payload: json.RawMessage(`42`)}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got := string(data); got != `["v1",42]` {
		t.Errorf("got %s, want [\"v1\",42]", got)
	}
}

func TestRawMessageRoundTrip(t *testing.T) {
	original := RawMessage{VertexID: "v2", Payload: json.RawMessage(`{"a":1}`)}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.VertexID != original.VertexID {
		t.Errorf("VertexID = %q, want %q", decoded.VertexID, original.VertexID)
	}
	if string(decoded.Payload) != string(original.Payload) {
		t.Errorf("Payload = %s, want %s", decoded.Payload, original.Payload)
	}
}

func TestReceivedMessagesRequestDecodesMessageList(t *testing.T) {
	raw := `{"gss":3,"messages":[["v1",1],["v2",2]]}`
	var req ReceivedMessagesRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if req.GSS == nil || *req.GSS != 3 {
		t.Errorf("GSS = %v, want 3", req.GSS)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(req.Messages))
	}
	if req.Messages[0].VertexID != "v1" || req.Messages[1].VertexID != "v2" {
		t.Errorf("got %v, want v1 then v2", req.Messages)
	}
}
