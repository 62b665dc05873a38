// Package checkpoint persists per-superstep WorkerStats snapshots to a
// local sqlite database for diagnostics and tests, adapted from
// bagel/checkpoints.go's fault-tolerance checkpointing. This worker
// treats restart-from-checkpoint as out of scope (spec.md's
// fault-tolerant-restart non-goal): nothing here ever feeds state back
// into a running Worker. It exists purely as a durable history a test
// or operator can query after the fact.
package checkpoint

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Snapshot is one superstep's completion-report counters, the smallest
// useful unit of history - grounded on bagel/checkpoints.go's
// Checkpoint{SuperStepNumber, CheckpointState}, generalized from a
// per-vertex checkpoint map (fault tolerance) to per-superstep stats
// (diagnostics).
type Snapshot struct {
	GSS           uint64
	ActiveCount   uint64
	SendCount     uint64
	ReceivedCount uint64
	Done          bool
	Err           string
}

// Store wraps a sqlite database holding one worker's superstep
// history. One Store per worker process, keyed by WorkerID in the
// filename like bagel/checkpoints.go's getConnection
// ("checkpoints%v.db", w.config.WorkerId).
type Store struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS superstep_snapshots (
  gss INTEGER NOT NULL PRIMARY KEY,
  snapshot BLOB NOT NULL
);`

// Open creates or attaches to a per-worker sqlite file and ensures its
// schema exists.
func Open(workerID string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("checkpoints-%s.db", workerID))
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open: %w", err)
	}
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying sqlite connection.
func (s *Store) Close() error { return s.db.Close() }

// Save gob-encodes and upserts a superstep snapshot, replacing any
// prior entry for the same gss - mirrors storeCheckpoint's
// "delete from checkpoints where lastCheckpointNumber>=?" truncation,
// simplified to a single-row replace since there is no replica to
// reconcile against here.
func (s *Store) Save(snap Snapshot) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("checkpoint: encode snapshot for gss %d: %w", snap.GSS, err)
	}
	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO superstep_snapshots VALUES(?,?)",
		snap.GSS, buf.Bytes(),
	); err != nil {
		return fmt.Errorf("checkpoint: insert snapshot for gss %d: %w", snap.GSS, err)
	}
	return nil
}

// Load retrieves the saved snapshot for gss, or sql.ErrNoRows if none
// was ever saved.
func (s *Store) Load(gss uint64) (Snapshot, error) {
	var buf []byte
	row := s.db.QueryRow("SELECT snapshot FROM superstep_snapshots WHERE gss=?", gss)
	if err := row.Scan(&buf); err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("checkpoint: decode snapshot for gss %d: %w", gss, err)
	}
	return snap, nil
}

// History returns every saved snapshot in ascending gss order, for a
// test or operator inspecting a completed run.
func (s *Store) History() ([]Snapshot, error) {
	rows, err := s.db.Query("SELECT snapshot FROM superstep_snapshots ORDER BY gss ASC")
	if err != nil {
		return nil, fmt.Errorf("checkpoint: query history: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var buf []byte
		if err := rows.Scan(&buf); err != nil {
			return nil, fmt.Errorf("checkpoint: scan history row: %w", err)
		}
		var snap Snapshot
		if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&snap); err != nil {
			return nil, fmt.Errorf("checkpoint: decode history row: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
