package pregelworker

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arangodb/pregel-worker/pkg/pregelapi"
)

func awaitRequest(t *testing.T, requests <-chan *http.Request) *http.Request {
	t.Helper()
	select {
	case r := <-requests:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the fire-and-forget POST to arrive")
		return nil
	}
}

func TestHTTPTransportSendPostsToPeerMessagesRoute(t *testing.T) {
	requests := make(chan *http.Request, 1)
	var body pregelapi.PeerMessageDelivery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		requests <- r
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	transport := newHTTPTransport(log.New(io.Discard, "", 0))
	transport.Send(srv.URL, 3, []pregelapi.RawMessage{{VertexID: "v1", Payload: json.RawMessage(`1.5`)}})

	r := awaitRequest(t, requests)
	if r.URL.Path != "/"+pregelapi.MessagesPath {
		t.Errorf("posted to %q, want /%s", r.URL.Path, pregelapi.MessagesPath)
	}
	if body.GSS != 3 {
		t.Errorf("body.GSS = %d, want 3", body.GSS)
	}
	if len(body.Messages) != 1 || body.Messages[0].VertexID != "v1" {
		t.Errorf("got messages %+v, want one message addressed to v1", body.Messages)
	}
}

func TestHTTPTransportSendReportPostsToFinishedGSSPath(t *testing.T) {
	requests := make(chan *http.Request, 1)
	var report pregelapi.CompletionReport
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&report)
		requests <- r
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	transport := newHTTPTransport(log.New(io.Discard, "", 0))
	transport.SendReport(srv.URL, "graphA", pregelapi.CompletionReport{Sender: "w0", GSS: 2, Done: true})

	r := awaitRequest(t, requests)
	if want := "/graphA/" + pregelapi.FinishedGSSPath; r.URL.Path != want {
		t.Errorf("posted to %q, want %q", r.URL.Path, want)
	}
	if report.Sender != "w0" || report.GSS != 2 || !report.Done {
		t.Errorf("got report %+v, want Sender=w0 GSS=2 Done=true", report)
	}
}

func TestHTTPTransportSendSurvivesAnUnreachablePeer(t *testing.T) {
	transport := newHTTPTransport(log.New(io.Discard, "", 0))
	// Fire-and-forget: a dead address must not panic or block the
	// caller, it just logs and drops the delivery.
	transport.Send("http://127.0.0.1:1", 0, []pregelapi.RawMessage{{VertexID: "v1", Payload: json.RawMessage(`1`)}})
	time.Sleep(50 * time.Millisecond)
}
