package aggregator

import "encoding/json"

// MinFloat64 aggregates the minimum of float64 values seen so far.
// Neither built-in algorithm declares it; SSSP's convergence
// aggregator is an Or.
type MinFloat64 struct {
	value float64
	set   bool
}

// NewMinFloat64 is a Factory producing a fresh MinFloat64.
func NewMinFloat64() Aggregator { return &MinFloat64{} }

func (a *MinFloat64) Reset() { a.value, a.set = 0, false }

func (a *MinFloat64) Aggregate(value interface{}) {
	v, ok := value.(float64)
	if !ok {
		return
	}
	if !a.set || v < a.value {
		a.value, a.set = v, true
	}
}

func (a *MinFloat64) Value() interface{} { return a.value }

func (a *MinFloat64) Serialize() (json.RawMessage, error) { return json.Marshal(a.value) }

func (a *MinFloat64) Parse(raw json.RawMessage) error {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	a.value, a.set = v, true
	return nil
}

// SumFloat64 aggregates a running sum of float64 values. Used by
// PageRank for the residual-mass aggregator.
type SumFloat64 struct {
	value float64
}

// NewSumFloat64 is a Factory producing a fresh SumFloat64.
func NewSumFloat64() Aggregator { return &SumFloat64{} }

func (a *SumFloat64) Reset() { a.value = 0 }

func (a *SumFloat64) Aggregate(value interface{}) {
	switch v := value.(type) {
	case float64:
		a.value += v
	case int:
		a.value += float64(v)
	}
}

func (a *SumFloat64) Value() interface{} { return a.value }

func (a *SumFloat64) Serialize() (json.RawMessage, error) { return json.Marshal(a.value) }

func (a *SumFloat64) Parse(raw json.RawMessage) error {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	a.value = v
	return nil
}

// Or aggregates booleans with logical OR. Used for convergence flags:
// "did any vertex change this superstep".
type Or struct {
	value bool
}

// NewOr is a Factory producing a fresh Or.
func NewOr() Aggregator { return &Or{} }

func (a *Or) Reset() { a.value = false }

func (a *Or) Aggregate(value interface{}) {
	if v, ok := value.(bool); ok {
		a.value = a.value || v
	}
}

func (a *Or) Value() interface{} { return a.value }

func (a *Or) Serialize() (json.RawMessage, error) { return json.Marshal(a.value) }

func (a *Or) Parse(raw json.RawMessage) error {
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	a.value = v
	return nil
}
