// Package gclog records per-cycle collector statistics to SQLite.
//
// The recorder lives entirely on the driver side: the VM core reports
// cycles through its OnCycle hook and never touches storage itself.
package gclog

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/isaacazuelos/bfgc/vm"
)

// Recorder appends one row per collection cycle to a SQLite database.
type Recorder struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens the stats database at path, creating the schema if needed.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening stats database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS gc_cycles (
		vm_id       TEXT NOT NULL,
		cycle       INTEGER NOT NULL,
		reclaimed   INTEGER NOT NULL,
		live        INTEGER NOT NULL,
		threshold   INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		at          TEXT NOT NULL,
		PRIMARY KEY (vm_id, cycle)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Recorder{db: db}, nil
}

// Record appends the statistics from one collection cycle.
func (r *Recorder) Record(vmID string, s *vm.GCStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO gc_cycles
		 (vm_id, cycle, reclaimed, live, threshold, duration_ns, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		vmID, s.Cycle, s.Reclaimed, s.Live, s.Threshold,
		s.Duration.Nanoseconds(), s.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording cycle %d: %w", s.Cycle, err)
	}
	return nil
}

// Cycles returns the number of recorded cycles for the given VM.
func (r *Recorder) Cycles(vmID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM gc_cycles WHERE vm_id = ?", vmID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting cycles: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (r *Recorder) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
