package pregelworker

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/arangodb/pregel-worker/pkg/pregelapi"
)

// rpcTimeout is the fixed timeout spec.md §6 mandates for both the
// completion report and peer message POSTs - no retries either way.
const rpcTimeout = 90 * time.Second

// httpTransport fires-and-forgets JSON POSTs to peers and to the
// conductor. It satisfies cache.Sender directly; SendReport is the
// worker engine's own completion-report path, which has no
// cache-package equivalent since it carries an aggregate report rather
// than a message batch.
type httpTransport struct {
	client *http.Client
	logger *log.Logger
}

func newHTTPTransport(logger *log.Logger) *httpTransport {
	return &httpTransport{
		client: &http.Client{Timeout: rpcTimeout},
		logger: logger,
	}
}

// Send implements cache.Sender: POST a message batch to a peer
// worker's "<basePath>/messages" route. Submission is fire-and-forget
// - the call returns once the goroutine is scheduled, not once the
// peer responds (spec §4.D, §5).
func (t *httpTransport) Send(workerURL string, gss uint64, messages []pregelapi.RawMessage) {
	go func() {
		body, err := json.Marshal(pregelapi.PeerMessageDelivery{GSS: gss, Messages: messages})
		if err != nil {
			t.logger.Printf("marshal peer message batch for %s: %v", workerURL, err)
			return
		}
		url := strings.TrimRight(workerURL, "/") + "/" + pregelapi.MessagesPath
		t.post(url, body)
	}()
}

// SendReport POSTs a completion report to the conductor's finishedGSS
// endpoint, the barrier's final act for a superstep. No response
// callback: a failed or slow conductor is the conductor's problem to
// re-drive via its own timeouts (spec §4.G failure semantics).
func (t *httpTransport) SendReport(conductorURL, database string, report pregelapi.CompletionReport) {
	go func() {
		body, err := json.Marshal(report)
		if err != nil {
			t.logger.Printf("marshal completion report for gss %d: %v", report.GSS, err)
			return
		}
		url := strings.TrimRight(conductorURL, "/") + "/" + database + "/" + pregelapi.FinishedGSSPath
		t.post(url, body)
	}()
}

func (t *httpTransport) post(url string, body []byte) {
	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.logger.Printf("post %s: %v", url, err)
		return
	}
	resp.Body.Close()
}
