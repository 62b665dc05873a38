package graphstore

import "context"

// VertexRecord is the backend-agnostic shape a Loader hands back for
// one vertex: its value, shard assignment, and outgoing edges.
type VertexRecord[V, E any] struct {
	VertexID  string
	Value     V
	ShardHint uint32
	Edges     []Edge[E]
}

// VertexResult is the backend-agnostic shape StoreResults persists:
// just the vertex's final algorithm-defined value.
type VertexResult[V any] struct {
	VertexID string
	Value    V
}

// Loader fetches this worker's partition of a named graph/database.
// Grounded on database/mongodb/read.go's GetPartitionForWorkerX and
// database/database.go's GetAllVertices.
type Loader[V, E any] interface {
	LoadPartition(ctx context.Context, database string, workerShard, numShards uint32) ([]VertexRecord[V, E], error)
}

// Persister writes final vertex values back to storage once an
// execution finishes with storeResults=true. Grounded on
// database/db-setup.go's BatchInsertVertices.
type Persister[V any] interface {
	StoreResults(ctx context.Context, database string, results []VertexResult[V]) error
}

// Backend is the combined Loader+Persister a GraphStore is built from.
type Backend[V, E any] interface {
	Loader[V, E]
	Persister[V]
}

// Load populates the store from backend for the shard this worker
// owns, replacing any existing contents.
func Load[V, E any](ctx context.Context, backend Backend[V, E], database string, workerShard, numShards uint32) (*GraphStore[V, E], error) {
	records, err := backend.LoadPartition(ctx, database, workerShard, numShards)
	if err != nil {
		return nil, err
	}
	store := New[V, E]()
	for _, rec := range records {
		store.AddVertex(rec.VertexID, rec.Value, rec.ShardHint)
		for _, e := range rec.Edges {
			store.AddEdge(rec.VertexID, e)
		}
	}
	return store, nil
}

// StoreResults persists every vertex's current value via backend. A
// nil backend is treated as "discard results" and is a no-op -
// matching the teacher's "Discarding results" warning path
// (arangod/Pregel/Worker.cpp finalizeExecution).
func (g *GraphStore[V, E]) StoreResults(ctx context.Context, backend Persister[V], database string) error {
	if backend == nil {
		return nil
	}
	results := make([]VertexResult[V], len(g.vertexIDs))
	for i, id := range g.vertexIDs {
		results[i] = VertexResult[V]{VertexID: id, Value: g.values[i]}
	}
	return backend.StoreResults(ctx, database, results)
}
