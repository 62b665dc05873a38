// Package algorithm implements the vertex-program library contract:
// a factory dispatching an "algorithm" string to a typed worker
// instantiation, plus the two concrete algorithms (SSSP, PageRank)
// from spec.md's example scenarios.
//
// Both algorithms bind V=E=M=float64, mirroring one of the two
// concrete template instantiations the distillation source carries
// (arangod/Pregel/Worker.cpp: "template class
// arangodb::pregel::Worker<float, float, float>;"). The engine types in
// pkg/pregelworker stay generic over V, E, M so a future int64-keyed
// algorithm (the source's other instantiation) can be added without
// touching the engine.
package algorithm

import (
	"encoding/json"

	"github.com/arangodb/pregel-worker/pkg/aggregator"
	"github.com/arangodb/pregel-worker/pkg/cache"
	"github.com/arangodb/pregel-worker/pkg/graphstore"
	"github.com/arangodb/pregel-worker/pkg/message"
	"github.com/arangodb/pregel-worker/pkg/pregelapi"
	"github.com/arangodb/pregel-worker/pkg/workercontext"
)

// Runtime is the set of per-task wiring a VertexComputation needs:
// the current gss, shared graph store and aggregator handles, and a
// place to send outgoing messages. The worker engine builds a fresh
// Runtime for every range task (spec §9 "construct fresh per task; do
// not share across tasks") and hands it to Algorithm.CreateComputation.
type Runtime[V, E, M any] struct {
	GSS                  uint64
	GraphStore           *graphstore.GraphStore[V, E]
	Outgoing             *cache.Outgoing[M]
	ConductorAggregators *aggregator.Usage
	WorkerAggregators    *aggregator.Usage
	Context              workercontext.Context
}

// SendMessageToVertex routes a message through the task's outgoing
// cache - local shortcut or remote batch, transparently.
func (r *Runtime[V, E, M]) SendMessageToVertex(vertexID string, m M) error {
	return r.Outgoing.SendMessageToVertex(vertexID, m)
}

// AggregateValue folds a value into this task's worker-aggregator
// snapshot, later merged into the shared worker aggregators at the
// barrier.
func (r *Runtime[V, E, M]) AggregateValue(name string, value interface{}) {
	if r.WorkerAggregators != nil {
		r.WorkerAggregators.Aggregate(name, value)
	}
}

// GetAggregatedValue reads a conductor-supplied aggregator value for
// the current gss. Read-only during compute (spec §5).
func (r *Runtime[V, E, M]) GetAggregatedValue(name string) interface{} {
	if r.ConductorAggregators == nil {
		return nil
	}
	return r.ConductorAggregators.Get(name)
}

// VertexComputation is implemented by an algorithm's per-superstep
// compute logic. One instance is created per range task, never shared.
type VertexComputation[V, E, M any] interface {
	Compute(entry *graphstore.VertexEntry[V, E], messages *cache.MessageIterator[M]) error
}

// Algorithm binds concrete V, E, M types to a message format, optional
// combiner, aggregator declarations, and a per-superstep computation
// factory. Exactly the contract spec.md §1 attributes to the
// "vertex-program library" collaborator.
type Algorithm[V, E, M any] interface {
	Name() string
	MessageFormat() message.Format[M]
	MessageCombiner() message.Combiner[M]
	AggregatorFactories() map[string]aggregator.Factory
	WorkerContext() workercontext.Context
	CreateComputation(rt *Runtime[V, E, M]) VertexComputation[V, E, M]
}

// New dispatches an "algorithm" name plus its raw userParameters to a
// concrete Algorithm[float64, float64, float64]. Grounded on
// arangod/Pregel/Worker.cpp's IWorker::createWorker(vocbase, body)
// overload, which does exactly this string-to-type dispatch and fails
// with BAD_PARAMETER on anything else.
func New(name string, userParams json.RawMessage) (Algorithm[float64, float64, float64], error) {
	switch name {
	case "sssp":
		return NewSSSP(userParams)
	case "pagerank":
		return NewPageRank(userParams)
	default:
		return nil, pregelapi.BadParameter("unsupported algorithm %q", name)
	}
}
