package pregelworker

import (
	"context"
	"log"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arangodb/pregel-worker/pkg/aggregator"
	"github.com/arangodb/pregel-worker/pkg/algorithm"
	"github.com/arangodb/pregel-worker/pkg/cache"
	"github.com/arangodb/pregel-worker/pkg/checkpoint"
	"github.com/arangodb/pregel-worker/pkg/graphstore"
	"github.com/arangodb/pregel-worker/pkg/pregelapi"
	"github.com/arangodb/pregel-worker/pkg/workercontext"
)

// Worker is the per-partition BSP engine: it owns a graph-store
// partition, a two-phase message cache, and a range-partitioned thread
// pool, and exposes the four lifecycle operations a conductor drives it
// through. One Worker exists per (execution, shard) pair.
//
// Generalizes bagel/worker.go's Worker struct - same role (conductor-
// addressable compute unit holding a partition and a superstep
// counter) - to the gss-driven, cache-swapping state machine spec.md
// §4.G specifies, parameterized over algorithm-defined V, E, M like
// ArangoDB's Worker<V,E,M> template.
type Worker[V, E, M any] struct {
	cfg  Config
	algo algorithm.Algorithm[V, E, M]
	log  *log.Logger

	conductorMu sync.Mutex
	threadMu    sync.Mutex

	running atomic.Bool

	expectedGSS uint64
	currentGSS  uint64

	runningThreads uint64

	graphStore *graphstore.GraphStore[V, E]
	backend    graphstore.Persister[V]

	router cache.Router
	sender cache.Sender
	report reportSender

	readCache  *cache.Incoming[M]
	writeCache *cache.Incoming[M]

	conductorAggregators *aggregator.Usage
	workerAggregators    *aggregator.Usage

	stats          superstepStats
	superstepStart time.Time

	pool *pool

	workerContext workercontext.Context

	// checkpoints is nil unless the caller opted into per-superstep
	// diagnostic history (cmd/worker wires this when its config file's
	// checkpoint.enabled is true). Never read back into compute state.
	checkpoints *checkpoint.Store
}

// reportSender is the subset of httpTransport the engine needs for
// completion reports, kept as an interface so tests can substitute a
// recording stub.
type reportSender interface {
	SendReport(conductorURL, database string, report pregelapi.CompletionReport)
}

// New builds a Worker ready to run gss 0 once startGlobalStep is
// called. The caller (cmd/worker) is responsible for loading
// graphStore from a backend first.
func New[V, E, M any](
	cfg Config,
	algo algorithm.Algorithm[V, E, M],
	graphStore *graphstore.GraphStore[V, E],
	backend graphstore.Persister[V],
	peerURLs map[uint32]string,
	checkpoints *checkpoint.Store,
) *Worker[V, E, M] {
	logger := log.New(os.Stderr, "[worker "+cfg.WorkerID+"] ", log.LstdFlags)

	w := &Worker[V, E, M]{
		cfg:                  cfg,
		algo:                 algo,
		log:                  logger,
		graphStore:           graphStore,
		backend:              backend,
		router:               newStaticRouter(cfg.Shard, cfg.NumShards, peerURLs),
		workerContext:        algo.WorkerContext(),
		conductorAggregators: aggregator.NewUsage(algo.AggregatorFactories()),
		workerAggregators:    aggregator.NewUsage(algo.AggregatorFactories()),
		checkpoints:          checkpoints,
	}
	transport := newHTTPTransport(logger)
	w.sender = transport
	w.report = transport

	w.readCache = cache.NewIncoming[M](algo.MessageFormat(), algo.MessageCombiner())
	w.writeCache = cache.NewIncoming[M](algo.MessageFormat(), algo.MessageCombiner())

	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = runtime.NumCPU()
	}
	w.pool = newPool(poolSize)

	w.running.Store(true)
	if w.workerContext != nil {
		w.workerContext.PreApplication()
	}
	return w
}

func (w *Worker[V, E, M]) isRunning() bool { return w.running.Load() }

// PrepareGlobalStep implements spec §4.G's prepareGlobalStep: accept
// only the expected gss, swap the read/write caches, and reset both
// aggregator usages for the new superstep before loading the
// conductor-supplied values.
func (w *Worker[V, E, M]) PrepareGlobalStep(req pregelapi.PrepareGlobalStepRequest) *pregelapi.Error {
	w.conductorMu.Lock()
	defer w.conductorMu.Unlock()

	if req.GSS == nil {
		return pregelapi.BadParameter("prepareGlobalStep: gss is required")
	}
	gss := *req.GSS
	if gss != w.expectedGSS {
		return pregelapi.BadParameter("prepareGlobalStep: expected gss %d, got %d", w.expectedGSS, gss)
	}
	if req.AggregatorValues != nil {
		scratch := aggregator.NewUsage(w.algo.AggregatorFactories())
		if err := scratch.AggregateValues(req.AggregatorValues); err != nil {
			return pregelapi.BadParameter("prepareGlobalStep: invalid aggregatorValues: %v", err)
		}
	}

	w.currentGSS = gss
	w.readCache, w.writeCache = w.writeCache, w.readCache

	w.conductorAggregators.ResetValues()
	if req.AggregatorValues != nil {
		if err := w.conductorAggregators.AggregateValues(req.AggregatorValues); err != nil {
			return pregelapi.BadParameter("prepareGlobalStep: invalid aggregatorValues: %v", err)
		}
	}
	w.workerAggregators.ResetValues()

	if w.workerContext != nil {
		w.workerContext.PreGlobalSuperstep(gss)
	}
	return nil
}

// ReceivedMessages implements spec §4.G's receivedMessages: merge a
// conductor- or peer-submitted batch into the write cache. Rejects
// anything not addressed to the current gss (S4: stale delivery).
func (w *Worker[V, E, M]) ReceivedMessages(req pregelapi.ReceivedMessagesRequest) *pregelapi.Error {
	w.conductorMu.Lock()
	defer w.conductorMu.Unlock()

	if req.GSS == nil {
		return pregelapi.BadParameter("receivedMessages: gss is required")
	}
	if *req.GSS != w.currentGSS {
		return pregelapi.BadParameter("receivedMessages: expected gss %d, got %d", w.currentGSS, *req.GSS)
	}
	if err := w.writeCache.ParseMessages(req.Messages); err != nil {
		return pregelapi.BadParameter("receivedMessages: %v", err)
	}
	return nil
}

// StartGlobalStep implements spec §4.G's startGlobalStep: partition
// the local graph store into roughly-equal ranges and enqueue one
// compute task per range, counting the tasks actually enqueued rather
// than a derived total/delta figure (spec §9's range-partitioning edge
// case fix).
func (w *Worker[V, E, M]) StartGlobalStep(req pregelapi.StartGlobalStepRequest) *pregelapi.Error {
	w.conductorMu.Lock()
	defer w.conductorMu.Unlock()

	if req.GSS == nil || *req.GSS != w.currentGSS {
		return pregelapi.OutOfSync("startGlobalStep: expected gss %d", w.currentGSS)
	}

	if w.cfg.CreateVerticesOnMessage {
		w.createVerticesForPendingMessages()
	}

	total := w.graphStore.VertexCount()
	ranges := partitionRanges(total, w.pool.cap())
	gss := w.currentGSS

	w.stats = superstepStats{}
	w.runningThreads = uint64(len(ranges))
	w.superstepStart = time.Now()

	if len(ranges) == 0 {
		// No vertices at all: fire the barrier immediately with zero
		// tasks rather than leaving runningThreads permanently at 0
		// with nothing to decrement it.
		w.fireBarrier(gss)
		return nil
	}

	for _, r := range ranges {
		start, end := r[0], r[1]
		w.pool.submit(func() { w.runTask(gss, start, end) })
	}
	return nil
}

// createVerticesForPendingMessages implements spec §9's auto-create
// option for messages to non-existent vertices: any vertex ID the
// read cache holds messages for but this partition never loaded is
// appended as a fresh, active vertex before ranges are partitioned, so
// it participates in this superstep's compute pass like any other.
func (w *Worker[V, E, M]) createVerticesForPendingMessages() {
	var zero V
	for _, id := range w.readCache.VertexIDs() {
		if _, ok := w.graphStore.SlotOf(id); ok {
			continue
		}
		w.graphStore.AddVertex(id, zero, w.cfg.Shard)
	}
}

// cap reports the pool's configured concurrency, used only to size the
// range partitioning - not a hard limit on task count.
func (p *pool) cap() int { return cap(p.sem) }

// partitionRanges splits [0, total) into up to `threads` ranges, the
// last absorbing any remainder. Returns the ranges actually produced;
// spec §9 requires callers use len(result) for runningThreads, not a
// separately recomputed total/delta.
func partitionRanges(total, threads int) [][2]int {
	if total <= 0 {
		return nil
	}
	if threads < 1 {
		threads = 1
	}
	if threads > total {
		threads = total
	}
	delta := total / threads
	if delta < 1 {
		delta = 1
	}

	var ranges [][2]int
	start := 0
	for start < total {
		end := start + delta
		if end > total || len(ranges) == threads-1 {
			end = total
		}
		ranges = append(ranges, [2]int{start, end})
		start = end
	}
	return ranges
}

// runTask is one worker-pool task: compute over [start, end), flush its
// outgoing messages, merge its thread-local incoming cache into the
// shared write cache, then report to the barrier.
func (w *Worker[V, E, M]) runTask(gss uint64, start, end int) {
	if !w.isRunning() {
		w.threadDone(aggregator.NewUsage(w.algo.AggregatorFactories()), superstepStats{})
		return
	}

	localIncoming := cache.NewIncoming[M](w.algo.MessageFormat(), w.algo.MessageCombiner())
	outgoing := cache.NewOutgoing[M](w.router, w.sender, w.algo.MessageFormat(), localIncoming)
	threadAggregators := aggregator.NewUsage(w.algo.AggregatorFactories())

	rt := &algorithm.Runtime[V, E, M]{
		GSS:                  gss,
		GraphStore:           w.graphStore,
		Outgoing:             outgoing,
		ConductorAggregators: w.conductorAggregators,
		WorkerAggregators:    threadAggregators,
		Context:              w.workerContext,
	}
	computation := w.algo.CreateComputation(rt)

	var active uint64
	var taskErr error
	it := w.graphStore.VertexIterator(start, end)
	for {
		if !w.isRunning() {
			break
		}
		entry, ok := it.Next()
		if !ok {
			break
		}
		messages := w.readCache.GetMessages(entry.VertexID())
		if entry.Active() || messages.HasNext() {
			if err := computation.Compute(entry, messages); err != nil && taskErr == nil {
				taskErr = err
				w.log.Printf("compute error for vertex %s at gss %d: %v", entry.VertexID(), gss, err)
			}
		}
		if entry.Active() {
			active++
		}
	}

	outgoing.SendMessages(gss)
	w.writeCache.MergeCache(localIncoming)

	w.threadDone(threadAggregators, superstepStats{
		ActiveCount: active,
		SendCount:   outgoing.SendMessageCount(),
		Err:         taskErr,
	})
}

// threadDone implements the barrier (spec §4.G "_workerThreadDone"):
// fold this task's contribution into the shared accumulators, and if
// it was the last outstanding task, fire the completion report.
func (w *Worker[V, E, M]) threadDone(threadAggregators *aggregator.Usage, stats superstepStats) {
	w.threadMu.Lock()
	defer w.threadMu.Unlock()

	w.workerAggregators.AggregateUsage(threadAggregators)
	w.stats.ActiveCount += stats.ActiveCount
	w.stats.SendCount += stats.SendCount
	if stats.Err != nil && w.stats.Err == nil {
		w.stats.Err = stats.Err
	}

	if w.runningThreads > 0 {
		w.runningThreads--
	}
	if w.runningThreads > 0 {
		return
	}

	w.fireBarrierLocked()
}

// fireBarrier fires the barrier for a superstep with zero compute
// tasks (empty partition). Takes the thread mutex itself since it is
// called directly from StartGlobalStep, not from a pool task.
func (w *Worker[V, E, M]) fireBarrier(gss uint64) {
	w.threadMu.Lock()
	defer w.threadMu.Unlock()
	w.fireBarrierLocked()
}

// fireBarrierLocked assumes threadMu is held. Grounded on spec §4.G's
// barrier-completion bullet list: snapshot receivedCount, clear the
// read cache, advance expectedGss, build and send the report, then
// reset superstepStats for the next superstep.
func (w *Worker[V, E, M]) fireBarrierLocked() {
	finishedGSS := w.currentGSS
	w.stats.ReceivedCount = w.readCache.ReceivedMessageCount()
	w.readCache.Clear()
	w.expectedGSS = w.currentGSS + 1

	done := w.stats.allZero()
	runtimeMilli := uint64(time.Since(w.superstepStart).Milliseconds())

	if w.workerContext != nil {
		w.workerContext.PostGlobalSuperstep(finishedGSS)
	}

	aggregatorValues, err := w.workerAggregators.SerializeValues()
	if err != nil {
		w.log.Printf("serialize worker aggregators at gss %d: %v", finishedGSS, err)
	}

	report := pregelapi.CompletionReport{
		Sender:                w.cfg.WorkerID,
		ExecutionNumber:       w.cfg.ExecutionNumber,
		GSS:                   finishedGSS,
		Done:                  done,
		ActiveCount:           w.stats.ActiveCount,
		SendCount:             w.stats.SendCount,
		ReceivedCount:         w.stats.ReceivedCount,
		SuperstepRuntimeMilli: runtimeMilli,
		AggregatorValues:      aggregatorValues,
	}
	if w.stats.Err != nil {
		report.Error = w.stats.Err.Error()
	}

	w.stats = superstepStats{}

	if w.checkpoints != nil {
		snap := checkpoint.Snapshot{
			GSS:           report.GSS,
			ActiveCount:   report.ActiveCount,
			SendCount:     report.SendCount,
			ReceivedCount: report.ReceivedCount,
			Done:          report.Done,
			Err:           report.Error,
		}
		if err := w.checkpoints.Save(snap); err != nil {
			w.log.Printf("save checkpoint snapshot for gss %d: %v", finishedGSS, err)
		}
	}

	if w.isRunning() {
		w.report.SendReport(w.cfg.CoordinatorURL, w.cfg.Database, report)
	}
}

// FinalizeExecution implements spec §4.G's finalizeExecution: flip the
// cooperative cancellation flag, join every outstanding task, and
// optionally persist results before releasing the graph store.
//
// running is an atomic flag: in-flight tasks read it without taking
// conductorMu, so they observe the store promptly, and pool.wait() does
// not deadlock even though this call holds conductorMu while it waits.
func (w *Worker[V, E, M]) FinalizeExecution(ctx context.Context, req pregelapi.FinalizeExecutionRequest) *pregelapi.Error {
	w.conductorMu.Lock()
	defer w.conductorMu.Unlock()

	w.running.Store(false)
	w.pool.wait()

	storeResults := req.StoreResults != nil && *req.StoreResults
	if storeResults {
		if err := w.graphStore.StoreResults(ctx, w.backend, w.cfg.Database); err != nil {
			w.log.Printf("store results: %v", err)
		}
	} else {
		w.log.Printf("discarding results")
	}
	w.graphStore = nil
	return nil
}
