package cache

import (
	"sync/atomic"

	"github.com/arangodb/pregel-worker/pkg/message"
	"github.com/arangodb/pregel-worker/pkg/pregelapi"
)

// Router resolves which shard owns a vertex and where that shard's
// worker can be reached, so Outgoing can take the local shortcut or
// batch for remote delivery.
type Router interface {
	ShardFor(vertexID string) uint32
	LocalShard() uint32
	WorkerURL(shard uint32) string
}

// Sender submits a message batch for fire-and-forget delivery to a
// peer worker. Send must return once the batch is handed off, not once
// a response is received - see spec §4.D/§5.
type Sender interface {
	Send(workerURL string, gss uint64, messages []pregelapi.RawMessage)
}

// Outgoing batches messages by destination shard, short-circuiting
// sends to the local shard directly into a bound Incoming cache
// instead of round-tripping through the transport.
type Outgoing[M any] struct {
	router Router
	sender Sender
	format message.Format[M]
	local  *Incoming[M]

	remote     map[uint32][]pregelapi.RawMessage
	localSent  uint64
	remoteSent uint64
}

// NewOutgoing builds an Outgoing cache bound to localIncoming as its
// local-shard shortcut destination - exactly the wiring the worker
// engine does once per compute task (spec §4.G step 2).
func NewOutgoing[M any](router Router, sender Sender, format message.Format[M], localIncoming *Incoming[M]) *Outgoing[M] {
	return &Outgoing[M]{
		router: router,
		sender: sender,
		format: format,
		local:  localIncoming,
		remote: make(map[uint32][]pregelapi.RawMessage),
	}
}

// SendMessageToVertex resolves vertexID's destination shard. If it is
// this worker's own shard, the message lands directly in the bound
// local cache; otherwise it is appended to that shard's pending batch.
func (o *Outgoing[M]) SendMessageToVertex(vertexID string, m M) error {
	shard := o.router.ShardFor(vertexID)
	if shard == o.router.LocalShard() {
		o.local.Add(vertexID, m)
		atomic.AddUint64(&o.localSent, 1)
		return nil
	}
	raw, err := o.format.Marshal(m)
	if err != nil {
		return err
	}
	o.remote[shard] = append(o.remote[shard], pregelapi.RawMessage{VertexID: vertexID, Payload: raw})
	atomic.AddUint64(&o.remoteSent, 1)
	return nil
}

// SendMessages hands every non-empty remote batch to the transport and
// clears it. Returns once all batches are submitted, not once any peer
// has responded.
func (o *Outgoing[M]) SendMessages(gss uint64) {
	for shard, batch := range o.remote {
		if len(batch) == 0 {
			continue
		}
		o.sender.Send(o.router.WorkerURL(shard), gss, batch)
		delete(o.remote, shard)
	}
}

// SendMessageCount totals both messages that took the local shortcut
// and messages batched for remote delivery.
func (o *Outgoing[M]) SendMessageCount() uint64 {
	return atomic.LoadUint64(&o.localSent) + atomic.LoadUint64(&o.remoteSent)
}
