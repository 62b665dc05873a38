package pregelapi

import "encoding/json"

// RawMessage is a single (destination vertex, payload) pair as it
// travels over the wire, before the payload is parsed into an M by the
// algorithm's MessageFormat. It is deliberately a 2-element array on
// the wire (matching the conductor's JSON shape), not an object.
type RawMessage struct {
	VertexID string
	Payload  json.RawMessage
}

// MarshalJSON encodes a RawMessage as the fixed-shape [vertexId, payload] pair.
func (m RawMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{m.VertexID, m.Payload})
}

// UnmarshalJSON decodes the [vertexId, payload] pair shape.
func (m *RawMessage) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &m.VertexID); err != nil {
		return err
	}
	m.Payload = pair[1]
	return nil
}

// PrepareGlobalStepRequest is the body of the prepareGlobalStep RPC.
type PrepareGlobalStepRequest struct {
	GSS              *uint64                    `json:"gss"`
	AggregatorValues map[string]json.RawMessage `json:"aggregatorValues,omitempty"`
}

// StartGlobalStepRequest is the body of the startGlobalStep RPC.
type StartGlobalStepRequest struct {
	GSS *uint64 `json:"gss"`
}

// ReceivedMessagesRequest is the body of the receivedMessages RPC.
type ReceivedMessagesRequest struct {
	GSS      *uint64      `json:"gss"`
	Messages []RawMessage `json:"messages"`
}

// FinalizeExecutionRequest is the body of the finalizeExecution RPC.
type FinalizeExecutionRequest struct {
	StoreResults *bool `json:"storeResults,omitempty"`
}

// CompletionReport is the payload POSTed to the conductor's finishedGSS
// endpoint once a superstep's barrier fires.
type CompletionReport struct {
	Sender                string                     `json:"sender"`
	ExecutionNumber        uint64                     `json:"executionNumber"`
	GSS                    uint64                     `json:"gss"`
	Done                   bool                       `json:"done"`
	ActiveCount            uint64                     `json:"activeCount"`
	SendCount              uint64                     `json:"sendCount"`
	ReceivedCount          uint64                     `json:"receivedCount"`
	SuperstepRuntimeMilli  uint64                     `json:"superstepRuntimeMilli"`
	AggregatorValues       map[string]json.RawMessage `json:"aggregatorValues,omitempty"`
	// Error is set when a compute task failed internally during the
	// superstep (spec §7 SHOULD behavior); the barrier still fired.
	Error string `json:"error,omitempty"`
}

// PeerMessageDelivery is the body POSTed to a peer worker's
// "<basePath>/messages" endpoint.
type PeerMessageDelivery struct {
	GSS      uint64       `json:"gss"`
	Messages []RawMessage `json:"messages"`
}

// FinishedGSSPath is the conductor-side path a completion report is
// POSTed to, relative to the conductor's per-database base URL.
const FinishedGSSPath = "finishedGSS"

// MessagesPath is the peer-worker-side path a message batch is POSTed
// to, relative to the target worker's base URL.
const MessagesPath = "messages"
