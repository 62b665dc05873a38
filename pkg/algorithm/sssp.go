package algorithm

import (
	"encoding/json"
	"math"

	"github.com/arangodb/pregel-worker/pkg/aggregator"
	"github.com/arangodb/pregel-worker/pkg/cache"
	"github.com/arangodb/pregel-worker/pkg/graphstore"
	"github.com/arangodb/pregel-worker/pkg/message"
	"github.com/arangodb/pregel-worker/pkg/pregelapi"
	"github.com/arangodb/pregel-worker/pkg/workercontext"
)

// ssspParams is the user-supplied JSON body for an SSSP run, grounded
// on bagel/worker_test.go's TestComputeShortestPath cases, which all
// key off a single designated source vertex.
type ssspParams struct {
	SourceVertexID string `json:"sourceVertexId"`
}

// SSSP implements single-source shortest paths with min-combined
// distance messages, matching spec.md's S1 scenario.
type SSSP struct {
	source string
}

// NewSSSP validates userParams and returns a ready-to-use SSSP
// algorithm, or a BAD_PARAMETER error if sourceVertexId is missing.
func NewSSSP(userParams json.RawMessage) (*SSSP, error) {
	var p ssspParams
	if len(userParams) > 0 {
		if err := json.Unmarshal(userParams, &p); err != nil {
			return nil, pregelapi.BadParameter("sssp: invalid userParameters: %v", err)
		}
	}
	if p.SourceVertexID == "" {
		return nil, pregelapi.BadParameter("sssp: userParameters.sourceVertexId is required")
	}
	return &SSSP{source: p.SourceVertexID}, nil
}

func (a *SSSP) Name() string { return "sssp" }

func (a *SSSP) MessageFormat() message.Format[float64] { return message.GobFormat[float64]{} }

// MessageCombiner folds competing distance candidates down to their
// minimum before they ever reach the read cache, per spec.md §3's
// combiner contract.
func (a *SSSP) MessageCombiner() message.Combiner[float64] { return message.MinFloat64Combiner{} }

// AggregatorFactories declares a single "changed" OR aggregator the
// conductor can poll to decide whether another superstep is worth
// running.
func (a *SSSP) AggregatorFactories() map[string]aggregator.Factory {
	return map[string]aggregator.Factory{
		"sssp.changed": aggregator.NewOr,
	}
}

func (a *SSSP) WorkerContext() workercontext.Context { return nil }

func (a *SSSP) CreateComputation(rt *Runtime[float64, float64, float64]) VertexComputation[float64, float64, float64] {
	return &ssspComputation{source: a.source, rt: rt}
}

type ssspComputation struct {
	source string
	rt     *Runtime[float64, float64, float64]
}

// Compute implements single-source shortest paths: the source seeds
// distance zero at gss 0, every other vertex relaxes against the
// minimum of its incoming messages and goes inactive once a superstep
// produces no improvement.
func (c *ssspComputation) Compute(entry *graphstore.VertexEntry[float64, float64], messages *cache.MessageIterator[float64]) error {
	changed := false

	if c.rt.GSS == 0 {
		if entry.VertexID() == c.source {
			entry.SetValue(0)
			changed = true
		} else {
			entry.SetValue(math.Inf(1))
		}
	} else {
		best := entry.Value()
		for messages.HasNext() {
			if d := messages.Next(); d < best {
				best = d
				changed = true
			}
		}
		if changed {
			entry.SetValue(best)
		}
	}

	if changed {
		dist := entry.Value()
		for _, e := range entry.Edges() {
			if err := c.rt.SendMessageToVertex(e.ToVertexID, dist+e.Value); err != nil {
				return err
			}
		}
	}

	entry.SetActive(changed)
	c.rt.AggregateValue("sssp.changed", changed)
	return nil
}
