// Package workercontext defines the WorkerContext hook interface an
// algorithm may implement to observe application/superstep boundaries,
// with read access to aggregated values and vertex/edge totals.
package workercontext

import "github.com/arangodb/pregel-worker/pkg/aggregator"

// Context is implemented by algorithms that need lifecycle hooks
// beyond per-vertex compute. All methods are optional from the
// worker's perspective - a nil Context is valid and every hook call is
// skipped.
type Context interface {
	// PreApplication is called once, at worker construction, before
	// any superstep runs.
	PreApplication()
	// PreGlobalSuperstep is called inside prepareGlobalStep, after the
	// cache swap and aggregator reset, before the conductor's RPC
	// returns.
	PreGlobalSuperstep(gss uint64)
	// PostGlobalSuperstep is called after the barrier fires, before
	// the completion report is built. Supplemented from
	// original_source/arangod/Pregel/Worker.cpp, which checks for a
	// context on both the pre- and post- edges of a superstep
	// symmetrically even though spec.md only mentions PreGlobalSuperstep
	// directly.
	PostGlobalSuperstep(gss uint64)
}

// Base gives algorithms read access to aggregated values and to the
// total vertex/edge counts seeded from the init config, without forcing
// every algorithm to implement every hook from scratch.
type Base struct {
	VertexCount uint64
	EdgeCount   uint64

	ConductorAggregators *aggregator.Usage
	WorkerAggregators     *aggregator.Usage
}

// PreApplication is a no-op default; embedders override as needed.
func (*Base) PreApplication() {}

// PreGlobalSuperstep is a no-op default; embedders override as needed.
func (*Base) PreGlobalSuperstep(uint64) {}

// PostGlobalSuperstep is a no-op default; embedders override as needed.
func (*Base) PostGlobalSuperstep(uint64) {}

// Aggregator reads a conductor-supplied aggregator value by name for
// the current superstep.
func (b *Base) Aggregator(name string) interface{} {
	if b.ConductorAggregators == nil {
		return nil
	}
	return b.ConductorAggregators.Get(name)
}
