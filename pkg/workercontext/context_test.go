package workercontext

import (
	"testing"

	"github.com/arangodb/pregel-worker/pkg/aggregator"
)

func TestBaseHooksAreNoops(t *testing.T) {
	var b Base
	b.PreApplication()
	b.PreGlobalSuperstep(3)
	b.PostGlobalSuperstep(3)
}

func TestBaseAggregatorReadsConductorValue(t *testing.T) {
	usage := aggregator.NewUsage(map[string]aggregator.Factory{"residual": aggregator.NewSumFloat64})
	usage.Aggregate("residual", 2.5)

	b := Base{ConductorAggregators: usage}
	if got := b.Aggregator("residual"); got.(float64) != 2.5 {
		t.Errorf("got %v, want 2.5", got)
	}
}

func TestBaseAggregatorNilWithoutConductorAggregators(t *testing.T) {
	var b Base
	if got := b.Aggregator("residual"); got != nil {
		t.Errorf("got %v, want nil when ConductorAggregators is unset", got)
	}
}

// customContext exercises the interface embedding pattern an algorithm
// would use to override just one hook.
type customContext struct {
	Base
	preAppCalls int
}

func (c *customContext) PreApplication() { c.preAppCalls++ }

func TestContextOverridesOneHookKeepsOthersFromBase(t *testing.T) {
	c := &customContext{}
	var ctx Context = c

	ctx.PreApplication()
	ctx.PreGlobalSuperstep(0)
	ctx.PostGlobalSuperstep(0)

	if c.preAppCalls != 1 {
		t.Errorf("preAppCalls = %d, want 1", c.preAppCalls)
	}
}
