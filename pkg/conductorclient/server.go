package conductorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/arangodb/pregel-worker/pkg/pregelapi"
)

// conductor implements Server. It kicks off gss 0 on a fixed worker set
// (StartExecution, mirroring bagel/coord.go's StartQuery) and tracks the
// most recent completion report each worker has POSTed to
// HandleFinishedGSS (mirroring workerReadyMap's per-worker bookkeeping),
// so QueryStatus has something real to answer with.
type Conductor struct {
	mu         sync.Mutex
	workerURLs []string
	latest     map[string]pregelapi.CompletionReport

	httpClient *http.Client
	logger     *log.Logger
}

// NewConductor builds a Server ready to be registered with RegisterServer.
func NewConductor(logger *log.Logger) *Conductor {
	return &Conductor{
		latest:     make(map[string]pregelapi.CompletionReport),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// StartExecution expects req to hold a "workerUrls" list field (each
// entry a worker's HTTP base URL) and issues gss 0's prepareGlobalStep
// then startGlobalStep to every one of them, the same two-phase kickoff
// StartQuery performs before blocking on workerReadyMap.
func (c *Conductor) StartExecution(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	workerURLs := stringListField(req, "workerUrls")

	c.mu.Lock()
	c.workerURLs = workerURLs
	c.latest = make(map[string]pregelapi.CompletionReport)
	c.mu.Unlock()

	gss := uint64(0)
	for _, url := range workerURLs {
		if err := c.postLifecycle(ctx, url, "prepareGlobalStep", pregelapi.PrepareGlobalStepRequest{GSS: &gss}); err != nil {
			return nil, fmt.Errorf("conductorclient: prepareGlobalStep on %s: %w", url, err)
		}
	}
	for _, url := range workerURLs {
		if err := c.postLifecycle(ctx, url, "startGlobalStep", pregelapi.StartGlobalStepRequest{GSS: &gss}); err != nil {
			return nil, fmt.Errorf("conductorclient: startGlobalStep on %s: %w", url, err)
		}
	}

	return structpb.NewStruct(map[string]interface{}{
		"accepted": true,
		"workers":  float64(len(workerURLs)),
	})
}

// QueryStatus reports the latest completion report received from each
// worker this conductor started, keyed by worker sender ID.
func (c *Conductor) QueryStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	workers := make(map[string]interface{}, len(c.latest))
	for sender, report := range c.latest {
		workers[sender] = map[string]interface{}{
			"gss":         float64(report.GSS),
			"done":        report.Done,
			"activeCount": float64(report.ActiveCount),
			"error":       report.Error,
		}
	}
	return structpb.NewStruct(map[string]interface{}{"workers": workers})
}

// HandleFinishedGSS is the HTTP handler a conductor registers at
// pregelapi.FinishedGSSPath; every worker's superstep-barrier POST
// lands here, mirroring the receiving half of StartQuery's workerReadyMap
// bookkeeping.
func (c *Conductor) HandleFinishedGSS(w http.ResponseWriter, r *http.Request) {
	var report pregelapi.CompletionReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.mu.Lock()
	c.latest[report.Sender] = report
	c.mu.Unlock()
	c.logger.Printf("conductorclient: gss %d report from %s (done=%v active=%d)", report.GSS, report.Sender, report.Done, report.ActiveCount)
	w.WriteHeader(http.StatusNoContent)
}

func (c *Conductor) postLifecycle(ctx context.Context, workerURL, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, workerURL+"/"+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("worker responded %s", resp.Status)
	}
	return nil
}

func stringListField(s *structpb.Struct, key string) []string {
	if s == nil {
		return nil
	}
	listVal, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	list := listVal.GetListValue()
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}
