package pregelworker

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/arangodb/pregel-worker/pkg/algorithm"
	"github.com/arangodb/pregel-worker/pkg/graphstore"
	"github.com/arangodb/pregel-worker/pkg/message"
	"github.com/arangodb/pregel-worker/pkg/pregelapi"
)

const float64EqualityThreshold = 1e-8

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= float64EqualityThreshold
}

// recordingReportSender is a reportSender stub that records every
// completion report it's asked to send, so tests can assert on the
// barrier's output without standing up a real HTTP conductor.
type recordingReportSender struct {
	reports chan pregelapi.CompletionReport
}

func newRecordingReportSender() *recordingReportSender {
	return &recordingReportSender{reports: make(chan pregelapi.CompletionReport, 16)}
}

func (s *recordingReportSender) SendReport(conductorURL, database string, report pregelapi.CompletionReport) {
	s.reports <- report
}

func (s *recordingReportSender) awaitReport(t *testing.T) pregelapi.CompletionReport {
	t.Helper()
	select {
	case r := <-s.reports:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a completion report")
		return pregelapi.CompletionReport{}
	}
}

// discardingPersister is a graphstore.Persister stub that persists
// nothing; it only records that StoreResults was called and with which
// results, so a test can positively assert StoreResults was reached.
type discardingPersister struct {
	called bool
	got    []graphstore.VertexResult[float64]
}

func (p *discardingPersister) StoreResults(ctx context.Context, database string, results []graphstore.VertexResult[float64]) error {
	p.called = true
	p.got = results
	return nil
}

func newSSSPWorker(t *testing.T, source string, store *graphstore.GraphStore[float64, float64]) (*Worker[float64, float64, float64], *recordingReportSender) {
	t.Helper()
	algo, err := algorithm.NewSSSP([]byte(`{"sourceVertexId":"` + source + `"}`))
	if err != nil {
		t.Fatalf("NewSSSP: %v", err)
	}
	sender := newRecordingReportSender()

	w := New[float64, float64, float64](
		Config{WorkerID: "w0", Database: "g", CoordinatorURL: "http://conductor.invalid", Shard: 0, NumShards: 1, PoolSize: 2},
		algo,
		store,
		nil,
		nil,
		nil,
	)
	w.report = sender
	return w, sender
}

func newSSSPWorkerWithConfig(t *testing.T, cfg Config, source string, store *graphstore.GraphStore[float64, float64]) (*Worker[float64, float64, float64], *recordingReportSender) {
	t.Helper()
	algo, err := algorithm.NewSSSP([]byte(`{"sourceVertexId":"` + source + `"}`))
	if err != nil {
		t.Fatalf("NewSSSP: %v", err)
	}
	sender := newRecordingReportSender()
	w := New[float64, float64, float64](cfg, algo, store, nil, nil, nil)
	w.report = sender
	return w, sender
}

func buildLineGraph(t *testing.T) *graphstore.GraphStore[float64, float64] {
	t.Helper()
	store := graphstore.New[float64, float64]()
	store.AddVertex("a", 0, 0)
	store.AddVertex("b", 0, 0)
	store.AddVertex("c", 0, 0)
	store.AddEdge("a", graphstore.Edge[float64]{ToVertexID: "b", Value: 1})
	store.AddEdge("b", graphstore.Edge[float64]{ToVertexID: "c", Value: 1})
	return store
}

func TestWorkerRejectsPrepareGlobalStepForWrongGSS(t *testing.T) {
	w, _ := newSSSPWorker(t, "a", buildLineGraph(t))

	one := uint64(1)
	apiErr := w.PrepareGlobalStep(pregelapi.PrepareGlobalStepRequest{GSS: &one})
	if apiErr == nil {
		t.Fatal("expected an error preparing gss 1 when gss 0 is expected")
	}
}

func TestWorkerRejectsReceivedMessagesForWrongGSS(t *testing.T) {
	w, _ := newSSSPWorker(t, "a", buildLineGraph(t))

	zero := uint64(0)
	if apiErr := w.PrepareGlobalStep(pregelapi.PrepareGlobalStepRequest{GSS: &zero}); apiErr != nil {
		t.Fatalf("PrepareGlobalStep: %v", apiErr)
	}

	one := uint64(1)
	apiErr := w.ReceivedMessages(pregelapi.ReceivedMessagesRequest{GSS: &one})
	if apiErr == nil {
		t.Fatal("expected an error for a message batch addressed to the wrong gss")
	}
}

func TestWorkerStartGlobalStepRejectsOutOfSyncGSS(t *testing.T) {
	w, _ := newSSSPWorker(t, "a", buildLineGraph(t))

	five := uint64(5)
	apiErr := w.StartGlobalStep(pregelapi.StartGlobalStepRequest{GSS: &five})
	if apiErr == nil {
		t.Fatal("expected an OUT_OF_SYNC error starting a gss the worker doesn't expect")
	}
}

// TestWorkerRunsSSSPToConvergence drives a three-vertex line graph a->b->c
// through a full prepare/start/barrier cycle per superstep until the
// completion report goes quiet, and checks the distances it settles on.
func TestWorkerRunsSSSPToConvergence(t *testing.T) {
	store := buildLineGraph(t)
	w, sender := newSSSPWorker(t, "a", store)

	gss := uint64(0)
	for {
		if apiErr := w.PrepareGlobalStep(pregelapi.PrepareGlobalStepRequest{GSS: &gss}); apiErr != nil {
			t.Fatalf("PrepareGlobalStep(%d): %v", gss, apiErr)
		}
		if apiErr := w.StartGlobalStep(pregelapi.StartGlobalStepRequest{GSS: &gss}); apiErr != nil {
			t.Fatalf("StartGlobalStep(%d): %v", gss, apiErr)
		}
		report := sender.awaitReport(t)
		if report.GSS != gss {
			t.Fatalf("report.GSS = %d, want %d", report.GSS, gss)
		}
		if report.Done {
			break
		}
		gss++
		if gss > 10 {
			t.Fatal("sssp on a 3-vertex line graph did not converge within 10 supersteps")
		}
	}

	if _, ok := store.SlotOf("c"); !ok {
		t.Fatal("vertex c missing from store")
	}
	it := store.VertexIterator(0, store.VertexCount())
	got := map[string]float64{}
	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		got[e.VertexID()] = e.Value()
	}
	if !almostEqual(got["a"], 0) {
		t.Errorf("dist(a) = %v, want 0", got["a"])
	}
	if !almostEqual(got["b"], 1) {
		t.Errorf("dist(b) = %v, want 1", got["b"])
	}
	if !almostEqual(got["c"], 2) {
		t.Errorf("dist(c) = %v, want 2", got["c"])
	}
}

func TestWorkerStartGlobalStepWithEmptyPartitionFiresBarrierImmediately(t *testing.T) {
	store := graphstore.New[float64, float64]()
	w, sender := newSSSPWorker(t, "a", store)

	zero := uint64(0)
	if apiErr := w.PrepareGlobalStep(pregelapi.PrepareGlobalStepRequest{GSS: &zero}); apiErr != nil {
		t.Fatalf("PrepareGlobalStep: %v", apiErr)
	}
	if apiErr := w.StartGlobalStep(pregelapi.StartGlobalStepRequest{GSS: &zero}); apiErr != nil {
		t.Fatalf("StartGlobalStep: %v", apiErr)
	}

	report := sender.awaitReport(t)
	if !report.Done {
		t.Errorf("expected an empty partition to report done=true immediately")
	}
}

func TestWorkerFinalizeExecutionStoresResultsWhenRequested(t *testing.T) {
	store := buildLineGraph(t)
	algo, err := algorithm.NewSSSP([]byte(`{"sourceVertexId":"a"}`))
	if err != nil {
		t.Fatalf("NewSSSP: %v", err)
	}
	persister := &discardingPersister{}
	sender := newRecordingReportSender()

	w := New[float64, float64, float64](
		Config{WorkerID: "w0", Database: "g", Shard: 0, NumShards: 1, PoolSize: 2},
		algo, store, persister, nil, nil,
	)
	w.report = sender

	storeResults := true
	apiErr := w.FinalizeExecution(context.Background(), pregelapi.FinalizeExecutionRequest{StoreResults: &storeResults})
	if apiErr != nil {
		t.Fatalf("FinalizeExecution: %v", apiErr)
	}
	if !persister.called {
		t.Errorf("expected FinalizeExecution(storeResults=true) to call the backend's StoreResults")
	}
	if len(persister.got) != 3 {
		t.Errorf("got %d stored results, want 3", len(persister.got))
	}
}

func TestWorkerFinalizeExecutionSkipsStoreWhenNotRequested(t *testing.T) {
	store := buildLineGraph(t)
	algo, _ := algorithm.NewSSSP([]byte(`{"sourceVertexId":"a"}`))
	persister := &discardingPersister{}
	sender := newRecordingReportSender()

	w := New[float64, float64, float64](
		Config{WorkerID: "w0", Database: "g", Shard: 0, NumShards: 1, PoolSize: 2},
		algo, store, persister, nil, nil,
	)
	w.report = sender

	if apiErr := w.FinalizeExecution(context.Background(), pregelapi.FinalizeExecutionRequest{}); apiErr != nil {
		t.Fatalf("FinalizeExecution: %v", apiErr)
	}
	if persister.called {
		t.Errorf("expected FinalizeExecution without storeResults to leave the backend untouched")
	}
}

func TestWorkerRunTaskSkippedWhenNotRunning(t *testing.T) {
	store := buildLineGraph(t)
	w, sender := newSSSPWorker(t, "a", store)
	w.running.Store(false)

	w.runTask(0, 0, store.VertexCount())

	// fireBarrierLocked only sends a report while isRunning(); a task
	// that finds the worker already stopped folds zero stats into the
	// barrier but must not report past FinalizeExecution's cancellation.
	select {
	case r := <-sender.reports:
		t.Errorf("expected no completion report once the worker has stopped, got %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
}

// deliverToUnknownVertex drives a worker through gss 0, then feeds a
// message addressed to vertexID - absent from the store - into the
// write cache so it surfaces as the read cache's contents once gss 1
// is prepared.
func deliverToUnknownVertex(t *testing.T, w *Worker[float64, float64, float64], sender *recordingReportSender, vertexID string, value float64) {
	t.Helper()
	zero := uint64(0)
	if apiErr := w.PrepareGlobalStep(pregelapi.PrepareGlobalStepRequest{GSS: &zero}); apiErr != nil {
		t.Fatalf("PrepareGlobalStep(0): %v", apiErr)
	}
	if apiErr := w.StartGlobalStep(pregelapi.StartGlobalStepRequest{GSS: &zero}); apiErr != nil {
		t.Fatalf("StartGlobalStep(0): %v", apiErr)
	}
	sender.awaitReport(t)

	payload, err := message.GobFormat[float64]{}.Marshal(value)
	if err != nil {
		t.Fatalf("Marshal payload: %v", err)
	}
	if apiErr := w.ReceivedMessages(pregelapi.ReceivedMessagesRequest{
		GSS:      &zero,
		Messages: []pregelapi.RawMessage{{VertexID: vertexID, Payload: payload}},
	}); apiErr != nil {
		t.Fatalf("ReceivedMessages: %v", apiErr)
	}
}

func TestWorkerDropsMessageToUnknownVertexByDefault(t *testing.T) {
	store := buildLineGraph(t)
	cfg := Config{WorkerID: "w0", Database: "g", Shard: 0, NumShards: 1, PoolSize: 2}
	w, sender := newSSSPWorkerWithConfig(t, cfg, "a", store)

	deliverToUnknownVertex(t, w, sender, "z", 1.5)

	one := uint64(1)
	if apiErr := w.PrepareGlobalStep(pregelapi.PrepareGlobalStepRequest{GSS: &one}); apiErr != nil {
		t.Fatalf("PrepareGlobalStep(1): %v", apiErr)
	}
	if apiErr := w.StartGlobalStep(pregelapi.StartGlobalStepRequest{GSS: &one}); apiErr != nil {
		t.Fatalf("StartGlobalStep(1): %v", apiErr)
	}
	sender.awaitReport(t)

	if got := store.VertexCount(); got != 3 {
		t.Errorf("VertexCount() = %d, want 3 (message to an unknown vertex should be dropped silently)", got)
	}
	if _, ok := store.SlotOf("z"); ok {
		t.Errorf("vertex z should not have been created")
	}
}

func TestWorkerAutoCreatesVertexOnMessageWhenEnabled(t *testing.T) {
	store := buildLineGraph(t)
	cfg := Config{WorkerID: "w0", Database: "g", Shard: 0, NumShards: 1, PoolSize: 2, CreateVerticesOnMessage: true}
	w, sender := newSSSPWorkerWithConfig(t, cfg, "a", store)

	// -5 is smaller than the auto-created vertex's zero-value default,
	// so a successful compute pass over z changes its distance and
	// reactivates it - proof the vertex wasn't just created but
	// actually ran through the algorithm this superstep.
	deliverToUnknownVertex(t, w, sender, "z", -5)

	one := uint64(1)
	if apiErr := w.PrepareGlobalStep(pregelapi.PrepareGlobalStepRequest{GSS: &one}); apiErr != nil {
		t.Fatalf("PrepareGlobalStep(1): %v", apiErr)
	}
	if apiErr := w.StartGlobalStep(pregelapi.StartGlobalStepRequest{GSS: &one}); apiErr != nil {
		t.Fatalf("StartGlobalStep(1): %v", apiErr)
	}
	sender.awaitReport(t)

	if got := store.VertexCount(); got != 4 {
		t.Fatalf("VertexCount() = %d, want 4 (message to an unknown vertex should auto-create it)", got)
	}
	if _, ok := store.SlotOf("z"); !ok {
		t.Fatal("vertex z should have been created")
	}

	it := store.VertexIterator(0, store.VertexCount())
	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		if entry.VertexID() == "z" {
			if !almostEqual(entry.Value(), -5) {
				t.Errorf("z.Value() = %v, want -5 (computed from its delivered message)", entry.Value())
			}
			if !entry.Active() {
				t.Errorf("z should be active after a compute pass that improved its distance")
			}
		}
	}
}
