// Package graphstore owns a worker's local vertex/edge partition for
// the lifetime of one execution: two parallel arrays (vertex values,
// edge records) plus the load/persist paths backed by the pack's real
// storage drivers (MongoDB, DynamoDB).
package graphstore

import "fmt"

// Edge is a single outgoing edge record: destination vertex, the
// edge's algorithm-defined value, and a shard hint so the owning
// worker never needs a second lookup to route a message along it.
type Edge[E any] struct {
	ToVertexID string
	Value      E
	ShardHint  uint32
}

// GraphStore owns two parallel arrays - vertex values of type V, and
// per-vertex edge lists of type E - for one worker's partition.
// Lifetime equals the worker's execution (spec §3).
type GraphStore[V, E any] struct {
	vertexIDs  []string
	values     []V
	active     []bool
	shardHints []uint32
	edges      [][]Edge[E]

	byID map[string]int
}

// New builds an empty GraphStore. Callers populate it via Load or,
// in tests, via AddVertex/AddEdge directly.
func New[V, E any]() *GraphStore[V, E] {
	return &GraphStore[V, E]{byID: make(map[string]int)}
}

// AddVertex appends a vertex to the store, returning its slot index.
// Vertices are always active on creation, matching Pregel's
// convention that a freshly-loaded vertex participates in superstep 0.
func (g *GraphStore[V, E]) AddVertex(vertexID string, value V, shardHint uint32) int {
	slot := len(g.vertexIDs)
	g.vertexIDs = append(g.vertexIDs, vertexID)
	g.values = append(g.values, value)
	g.active = append(g.active, true)
	g.shardHints = append(g.shardHints, shardHint)
	g.edges = append(g.edges, nil)
	g.byID[vertexID] = slot
	return slot
}

// AddEdge appends an outgoing edge to fromVertexID's edge list. Returns
// false if fromVertexID is not present in the store.
func (g *GraphStore[V, E]) AddEdge(fromVertexID string, edge Edge[E]) bool {
	slot, ok := g.byID[fromVertexID]
	if !ok {
		return false
	}
	g.edges[slot] = append(g.edges[slot], edge)
	return true
}

// VertexCount reports the number of vertices in this partition.
func (g *GraphStore[V, E]) VertexCount() int { return len(g.vertexIDs) }

// EdgeCount reports the total number of outgoing edges across all
// vertices in this partition.
func (g *GraphStore[V, E]) EdgeCount() int {
	n := 0
	for _, e := range g.edges {
		n += len(e)
	}
	return n
}

// SlotOf returns the internal array index for vertexID. Used by the
// worker engine to tell a message addressed to an already-loaded
// vertex apart from one addressed to a vertex this partition has
// never seen (see pregelworker.Config.CreateVerticesOnMessage).
func (g *GraphStore[V, E]) SlotOf(vertexID string) (int, bool) {
	slot, ok := g.byID[vertexID]
	return slot, ok
}

// VertexEntry is a handle into one slot of a GraphStore's parallel
// arrays. It is mutated only by the owning compute thread during a
// superstep - ranges assigned to distinct threads never overlap, so no
// locking is needed (spec §5).
type VertexEntry[V, E any] struct {
	store *GraphStore[V, E]
	slot  int
}

// VertexID returns this entry's vertex identifier.
func (v *VertexEntry[V, E]) VertexID() string { return v.store.vertexIDs[v.slot] }

// Active reports whether the vertex will participate in the next
// superstep's compute pass.
func (v *VertexEntry[V, E]) Active() bool { return v.store.active[v.slot] }

// SetActive marks the vertex as halted (false) or reactivated (true).
// A vertex program calls this at the end of every compute() invocation.
func (v *VertexEntry[V, E]) SetActive(active bool) { v.store.active[v.slot] = active }

// ShardHint reports which shard this vertex has been assigned to.
func (v *VertexEntry[V, E]) ShardHint() uint32 { return v.store.shardHints[v.slot] }

// Value returns the vertex's current algorithm-defined value.
func (v *VertexEntry[V, E]) Value() V { return v.store.values[v.slot] }

// SetValue replaces the vertex's algorithm-defined value.
func (v *VertexEntry[V, E]) SetValue(value V) { v.store.values[v.slot] = value }

// Edges returns the vertex's outgoing edge list.
func (v *VertexEntry[V, E]) Edges() []Edge[E] { return v.store.edges[v.slot] }

func (v *VertexEntry[V, E]) String() string {
	return fmt.Sprintf("VertexEntry{id=%s active=%t}", v.VertexID(), v.Active())
}

// RangeIterator yields VertexEntry handles for the half-open slot range
// [start, end). Ranges assigned to distinct worker tasks never overlap
// (spec §4.E).
type RangeIterator[V, E any] struct {
	store    *GraphStore[V, E]
	pos, end int
}

// VertexIterator builds a RangeIterator over [start, end).
func (g *GraphStore[V, E]) VertexIterator(start, end int) *RangeIterator[V, E] {
	return &RangeIterator[V, E]{store: g, pos: start, end: end}
}

// Next returns the next entry in the range, or ok=false once exhausted.
func (it *RangeIterator[V, E]) Next() (*VertexEntry[V, E], bool) {
	if it.pos >= it.end {
		return nil, false
	}
	entry := &VertexEntry[V, E]{store: it.store, slot: it.pos}
	it.pos++
	return entry, true
}
