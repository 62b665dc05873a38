// Package cache implements the two-phase message-passing caches that
// give each superstep isolation under concurrent writes from peer
// workers and local compute threads.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/arangodb/pregel-worker/pkg/message"
	"github.com/arangodb/pregel-worker/pkg/pregelapi"
)

// Incoming is a per-vertex message buffer for a single superstep. When
// a Combiner is set, storage is exactly one M per vertex, updated in
// place; otherwise storage is an unordered list.
//
// Guarded by a single mutex - the spec requires thread-safety but never
// requires per-vertex granularity, and the teacher's own shared-state
// types (bagel/coord.go: workerReadyMapMutex, mx) use one coarse mutex
// per map rather than per-key locks.
type Incoming[M any] struct {
	mu       sync.Mutex
	format   message.Format[M]
	combiner message.Combiner[M]
	combined map[string]M
	lists    map[string][]M
	received uint64
}

// NewIncoming builds an empty Incoming cache. combiner may be nil, in
// which case messages accumulate as unordered lists per vertex.
func NewIncoming[M any](format message.Format[M], combiner message.Combiner[M]) *Incoming[M] {
	c := &Incoming[M]{format: format, combiner: combiner}
	if combiner != nil {
		c.combined = make(map[string]M)
	} else {
		c.lists = make(map[string][]M)
	}
	return c
}

// Add inserts a single already-decoded message for vertexId, combining
// it with any existing entry when a combiner is present. This is the
// path used by the local shortcut in Outgoing.
func (c *Incoming[M]) Add(vertexID string, m M) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addLocked(vertexID, m)
	atomic.AddUint64(&c.received, 1)
}

func (c *Incoming[M]) addLocked(vertexID string, m M) {
	if c.combiner != nil {
		if existing, ok := c.combined[vertexID]; ok {
			c.combined[vertexID] = c.combiner.Combine(existing, m)
		} else {
			c.combined[vertexID] = m
		}
		return
	}
	c.lists[vertexID] = append(c.lists[vertexID], m)
}

// ParseMessages decodes each (vertexId, payload) pair and merges it
// into the cache. Every payload is decoded before any is merged, so a
// decode error leaves the cache unchanged. Thread-safe; a single mutex
// guards the whole merge, matching the spec's "mutator uses a single
// mutex" contract.
func (c *Incoming[M]) ParseMessages(raw []pregelapi.RawMessage) error {
	decoded := make([]M, len(raw))
	for i, rm := range raw {
		m, err := c.format.Unmarshal(rm.Payload)
		if err != nil {
			return err
		}
		decoded[i] = m
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, rm := range raw {
		c.addLocked(rm.VertexID, decoded[i])
		atomic.AddUint64(&c.received, 1)
	}
	return nil
}

// MergeCache pours another Incoming cache into this one, preserving
// combiner semantics. Used both by the barrier (thread-local -> shared
// write cache) and by tests exercising combiner associativity.
func (c *Incoming[M]) MergeCache(other *Incoming[M]) {
	other.mu.Lock()
	var combined map[string]M
	var lists map[string][]M
	if other.combiner != nil {
		combined = make(map[string]M, len(other.combined))
		for k, v := range other.combined {
			combined[k] = v
		}
	} else {
		lists = make(map[string][]M, len(other.lists))
		for k, v := range other.lists {
			lists[k] = append([]M(nil), v...)
		}
	}
	otherReceived := atomic.LoadUint64(&other.received)
	other.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for vertexID, m := range combined {
		c.addLocked(vertexID, m)
	}
	for vertexID, ms := range lists {
		for _, m := range ms {
			c.addLocked(vertexID, m)
		}
	}
	atomic.AddUint64(&c.received, otherReceived)
}

// MessageIterator is a restartable, lazy iterator of M for a single
// vertex. Safe only when no concurrent mutation is happening on the
// source cache - true during compute, because the read and write
// caches are always distinct (invariant #3).
type MessageIterator[M any] struct {
	items []M
	pos   int
}

// HasNext reports whether Next will return another message.
func (it *MessageIterator[M]) HasNext() bool { return it.pos < len(it.items) }

// Next returns the next message, advancing the iterator.
func (it *MessageIterator[M]) Next() M {
	m := it.items[it.pos]
	it.pos++
	return m
}

// Size reports the total number of messages, regardless of iterator
// position.
func (it *MessageIterator[M]) Size() int { return len(it.items) }

// Reset rewinds the iterator to the beginning, enabling a second pass
// over the same messages without re-fetching from the cache.
func (it *MessageIterator[M]) Reset() { it.pos = 0 }

// GetMessages returns a fresh iterator over vertexID's buffered
// messages. Not safe to call concurrently with a mutator on the same
// cache instance.
func (c *Incoming[M]) GetMessages(vertexID string) *MessageIterator[M] {
	if c.combiner != nil {
		if m, ok := c.combined[vertexID]; ok {
			return &MessageIterator[M]{items: []M{m}}
		}
		return &MessageIterator[M]{}
	}
	return &MessageIterator[M]{items: c.lists[vertexID]}
}

// VertexIDs returns every vertex ID with at least one buffered
// message, in no particular order. Used by the worker engine to find
// messages addressed to vertices outside the loaded partition (see
// pregelworker.Config.CreateVerticesOnMessage).
func (c *Incoming[M]) VertexIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.combiner != nil {
		ids := make([]string, 0, len(c.combined))
		for id := range c.combined {
			ids = append(ids, id)
		}
		return ids
	}
	ids := make([]string, 0, len(c.lists))
	for id := range c.lists {
		ids = append(ids, id)
	}
	return ids
}

// Clear drops all buffered messages and resets the received counter.
// Called once the barrier has captured ReceivedMessageCount for the
// completion report - "no need to keep old messages around".
func (c *Incoming[M]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.combiner != nil {
		c.combined = make(map[string]M)
	} else {
		c.lists = make(map[string][]M)
	}
	atomic.StoreUint64(&c.received, 0)
}

// ReceivedMessageCount reports the monotonically increasing count of
// messages merged into this cache since the last Clear.
func (c *Incoming[M]) ReceivedMessageCount() uint64 {
	return atomic.LoadUint64(&c.received)
}
