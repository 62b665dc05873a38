package algorithm

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/arangodb/pregel-worker/pkg/cache"
	"github.com/arangodb/pregel-worker/pkg/graphstore"
	"github.com/arangodb/pregel-worker/pkg/message"
)

func emptyMessages() *cache.MessageIterator[float64] {
	return cache.NewIncoming[float64](message.GobFormat[float64]{}, nil).GetMessages("unused")
}

func messagesOf(combiner message.Combiner[float64], values ...float64) *cache.MessageIterator[float64] {
	c := cache.NewIncoming[float64](message.GobFormat[float64]{}, combiner)
	for _, v := range values {
		c.Add("v", v)
	}
	return c.GetMessages("v")
}

func newSSSPGraph() *graphstore.GraphStore[float64, float64] {
	g := graphstore.New[float64, float64]()
	g.AddVertex("A", 0, 0)
	g.AddVertex("B", 0, 0)
	g.AddVertex("C", 0, 0)
	g.AddEdge("A", graphstore.Edge[float64]{ToVertexID: "B", Value: 1})
	g.AddEdge("B", graphstore.Edge[float64]{ToVertexID: "C", Value: 2})
	return g
}

func TestSSSPGSSZeroSeedsSourceAndInfinityElsewhere(t *testing.T) {
	g := newSSSPGraph()
	algo, err := NewSSSP(json.RawMessage(`{"sourceVertexId":"A"}`))
	if err != nil {
		t.Fatalf("NewSSSP: %v", err)
	}
	rt, local := newTestRuntime(0, g, algo.MessageCombiner(), algo.AggregatorFactories())
	comp := algo.CreateComputation(rt)

	it := g.VertexIterator(0, g.VertexCount())
	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		if err := comp.Compute(entry, emptyMessages()); err != nil {
			t.Fatalf("Compute(%s): %v", entry.VertexID(), err)
		}
	}

	it = g.VertexIterator(0, g.VertexCount())
	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		switch entry.VertexID() {
		case "A":
			if !almostEqual(entry.Value(), 0) {
				t.Errorf("source A = %v, want 0", entry.Value())
			}
			if !entry.Active() {
				t.Errorf("source A should be active after seeding")
			}
		case "B", "C":
			if !math.IsInf(entry.Value(), 1) {
				t.Errorf("%s = %v, want +Inf before any message", entry.VertexID(), entry.Value())
			}
		}
	}

	if got := local.GetMessages("B"); !got.HasNext() {
		t.Errorf("source should have sent a message along its outgoing edge to B")
	}
}

func TestSSSPRelaxesOnSmallerIncomingMessage(t *testing.T) {
	g := graphstore.New[float64, float64]()
	g.AddVertex("B", math.Inf(1), 0)
	algo, err := NewSSSP(json.RawMessage(`{"sourceVertexId":"A"}`))
	if err != nil {
		t.Fatalf("NewSSSP: %v", err)
	}
	rt, _ := newTestRuntime(1, g, algo.MessageCombiner(), algo.AggregatorFactories())
	comp := algo.CreateComputation(rt)

	entry, _ := g.VertexIterator(0, 1).Next()
	if err := comp.Compute(entry, messagesOf(algo.MessageCombiner(), 5)); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if !almostEqual(entry.Value(), 5) {
		t.Errorf("B = %v, want 5", entry.Value())
	}
	if !entry.Active() {
		t.Errorf("B should stay active after improving its distance")
	}
}

func TestSSSPGoesInactiveWithNoImprovement(t *testing.T) {
	g := graphstore.New[float64, float64]()
	g.AddVertex("B", 3, 0)
	algo, err := NewSSSP(json.RawMessage(`{"sourceVertexId":"A"}`))
	if err != nil {
		t.Fatalf("NewSSSP: %v", err)
	}
	rt, _ := newTestRuntime(1, g, algo.MessageCombiner(), algo.AggregatorFactories())
	comp := algo.CreateComputation(rt)

	entry, _ := g.VertexIterator(0, 1).Next()
	if err := comp.Compute(entry, messagesOf(algo.MessageCombiner(), 10)); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if !almostEqual(entry.Value(), 3) {
		t.Errorf("B = %v, want unchanged 3", entry.Value())
	}
	if entry.Active() {
		t.Errorf("B should go inactive when no message improves its distance")
	}
}

func TestNewSSSPRequiresSourceVertexID(t *testing.T) {
	if _, err := NewSSSP(json.RawMessage(`{}`)); err == nil {
		t.Errorf("expected BAD_PARAMETER error for missing sourceVertexId")
	}
}
