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

// pageRankParams is the user-supplied JSON body for a PageRank run.
// Grounded on mikegfink-gamma's pagerankvertex.go, which hardcodes the
// same damping/threshold/numVertices trio as construction arguments.
type pageRankParams struct {
	Damping     float64 `json:"damping"`
	NumVertices uint64  `json:"numVertices"`
	Threshold   float64 `json:"threshold"`
}

// PageRank implements the standard damped random-surfer PageRank
// iteration, matching spec.md's S2 scenario (uniform convergence on a
// symmetric cycle).
type PageRank struct {
	damping     float64
	numVertices float64
	threshold   float64
}

// NewPageRank validates userParams and fills in the conventional
// defaults (damping 0.85, threshold 1e-4) where the caller omits them.
func NewPageRank(userParams json.RawMessage) (*PageRank, error) {
	p := pageRankParams{Damping: 0.85, Threshold: 1e-4}
	if len(userParams) > 0 {
		if err := json.Unmarshal(userParams, &p); err != nil {
			return nil, pregelapi.BadParameter("pagerank: invalid userParameters: %v", err)
		}
	}
	if p.NumVertices == 0 {
		return nil, pregelapi.BadParameter("pagerank: userParameters.numVertices is required")
	}
	if p.Damping <= 0 || p.Damping >= 1 {
		return nil, pregelapi.BadParameter("pagerank: userParameters.damping must be in (0,1)")
	}
	return &PageRank{
		damping:     p.Damping,
		numVertices: float64(p.NumVertices),
		threshold:   p.Threshold,
	}, nil
}

func (a *PageRank) Name() string { return "pagerank" }

func (a *PageRank) MessageFormat() message.Format[float64] { return message.GobFormat[float64]{} }

// MessageCombiner sums competing rank contributions before they reach
// the read cache - PageRank's update rule only ever needs the total
// incoming mass, never the individual contributions.
func (a *PageRank) MessageCombiner() message.Combiner[float64] { return message.SumFloat64Combiner{} }

// AggregatorFactories declares a "residual" sum aggregator the
// conductor can poll to detect convergence across the whole graph, not
// just a single worker's partition.
func (a *PageRank) AggregatorFactories() map[string]aggregator.Factory {
	return map[string]aggregator.Factory{
		"pagerank.residual": aggregator.NewSumFloat64,
	}
}

func (a *PageRank) WorkerContext() workercontext.Context { return nil }

func (a *PageRank) CreateComputation(rt *Runtime[float64, float64, float64]) VertexComputation[float64, float64, float64] {
	return &pageRankComputation{alg: a, rt: rt}
}

type pageRankComputation struct {
	alg *PageRank
	rt  *Runtime[float64, float64, float64]
}

// Compute implements one PageRank iteration: seed a uniform rank at
// gss 0 and fan it out evenly across outgoing edges, then on every
// later superstep fold incoming contributions into the damped update
// rule and re-fan the new rank. A vertex goes inactive once its own
// residual drops below the configured threshold, though it will wake
// again (spec §3's "message wakes a halted vertex" rule) if a neighbor
// still sends it mass.
func (c *pageRankComputation) Compute(entry *graphstore.VertexEntry[float64, float64], messages *cache.MessageIterator[float64]) error {
	n := c.alg.numVertices
	edges := entry.Edges()

	var newValue float64
	if c.rt.GSS == 0 {
		newValue = 1.0 / n
	} else {
		var sum float64
		for messages.HasNext() {
			sum += messages.Next()
		}
		newValue = (1-c.alg.damping)/n + c.alg.damping*sum
	}

	residual := math.Abs(newValue - entry.Value())
	entry.SetValue(newValue)

	if len(edges) > 0 {
		share := newValue / float64(len(edges))
		for _, e := range edges {
			if err := c.rt.SendMessageToVertex(e.ToVertexID, share); err != nil {
				return err
			}
		}
	}

	entry.SetActive(c.rt.GSS == 0 || residual > c.alg.threshold)
	c.rt.AggregateValue("pagerank.residual", residual)
	return nil
}
