package pregelworker

import "sync"

// pool is a bounded goroutine pool sized to the host's logical CPU
// count (spec §5). It has no queueing beyond the semaphore itself -
// Submit blocks the caller's own goroutine (the startGlobalStep
// handler, under the conductor mutex) until a slot frees up, which is
// fine since enqueueing happens once per superstep, not per vertex.
type pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func newPool(size int) *pool {
	if size < 1 {
		size = 1
	}
	return &pool{sem: make(chan struct{}, size)}
}

// submit runs fn on a pool goroutine once a slot is free.
func (p *pool) submit(fn func()) {
	p.wg.Add(1)
	p.sem <- struct{}{}
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		fn()
	}()
}

// wait blocks until every submitted task has returned. Called from
// finalizeExecution to join outstanding tasks before the graph store
// is released (spec §5, §8 S6).
func (p *pool) wait() {
	p.wg.Wait()
}
