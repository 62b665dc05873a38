package checkpoint

import (
	"fmt"
	"os"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	workerID := fmt.Sprintf("test-%s", t.Name())
	s, err := Open(workerID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
		os.Remove(fmt.Sprintf("checkpoints-%s.db", workerID))
	})
	return s
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	snap := Snapshot{GSS: 3, ActiveCount: 10, SendCount: 20, ReceivedCount: 15, Done: false}
	if err := s.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != snap {
		t.Errorf("got %+v, want %+v", got, snap)
	}
}

func TestSaveReplacesExistingGSS(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save(Snapshot{GSS: 1, ActiveCount: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(Snapshot{GSS: 1, ActiveCount: 99}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ActiveCount != 99 {
		t.Errorf("ActiveCount = %d, want 99 (second Save should replace the first)", got.ActiveCount)
	}
}

func TestHistoryReturnsAscendingGSSOrder(t *testing.T) {
	s := openTestStore(t)

	for _, gss := range []uint64{2, 0, 1} {
		if err := s.Save(Snapshot{GSS: gss}); err != nil {
			t.Fatalf("Save(%d): %v", gss, err)
		}
	}

	history, err := s.History()
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(history))
	}
	for i, want := range []uint64{0, 1, 2} {
		if history[i].GSS != want {
			t.Errorf("history[%d].GSS = %d, want %d", i, history[i].GSS, want)
		}
	}
}

func TestLoadMissingGSSReturnsError(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Load(42); err == nil {
		t.Errorf("expected an error for a gss that was never saved")
	}
}
