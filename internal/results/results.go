// Package results persists simulation runs and their per-step balances in
// SQLite.
package results

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"cellsim/internal/simulator"
)

// ErrNoRun is returned when recording without an open run.
var ErrNoRun = errors.New("no run in progress")

// DefaultBatchSize is the number of steps written per transaction.
const DefaultBatchSize = 96

// Run is one stored simulation run.
type Run struct {
	ID       string     `db:"id"`
	Scenario string     `db:"scenario"`
	Seed     int64      `db:"seed"`
	Started  time.Time  `db:"started_at"`
	Finished *time.Time `db:"finished_at"`
	Steps    int        `db:"steps"`

	GenEKWh  float64 `db:"gen_e_kwh"`
	LoadEKWh float64 `db:"load_e_kwh"`
	GenTKWh  float64 `db:"gen_t_kwh"`
	LoadTKWh float64 `db:"load_t_kwh"`
	FuelKWh  float64 `db:"fuel_kwh"`
}

// Step is one stored step of a run.
type Step struct {
	RunID       string    `db:"run_id"`
	Step        int       `db:"step"`
	Timestamp   time.Time `db:"ts"`
	GenE        float64   `db:"gen_e"`
	LoadE       float64   `db:"load_e"`
	GenT        float64   `db:"gen_t"`
	LoadT       float64   `db:"load_t"`
	Fuel        float64   `db:"fuel"`
	OutdoorTemp float64   `db:"t_out"`
}

// Store wraps a SQLite connection holding run results.
type Store struct {
	conn *sqlx.DB
	log  *zap.Logger

	mu        sync.Mutex
	runID     string
	pending   []Step
	batchSize int
	err       error
}

// Open opens or creates a results database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	st := &Store{conn: conn, log: log, batchSize: DefaultBatchSize}
	if err := st.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

// Close flushes pending steps and closes the connection.
func (st *Store) Close() error {
	st.mu.Lock()
	err := st.flushLocked()
	st.mu.Unlock()
	return errors.Join(err, st.conn.Close())
}

// SetBatchSize sets how many steps are buffered before a write.
func (st *Store) SetBatchSize(n int) {
	if n < 1 {
		n = 1
	}
	st.mu.Lock()
	st.batchSize = n
	st.mu.Unlock()
}

func (st *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		seed INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		steps INTEGER NOT NULL DEFAULT 0,
		gen_e_kwh REAL NOT NULL DEFAULT 0,
		load_e_kwh REAL NOT NULL DEFAULT 0,
		gen_t_kwh REAL NOT NULL DEFAULT 0,
		load_t_kwh REAL NOT NULL DEFAULT 0,
		fuel_kwh REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS steps (
		run_id TEXT NOT NULL REFERENCES runs(id),
		step INTEGER NOT NULL,
		ts DATETIME NOT NULL,
		gen_e REAL NOT NULL,
		load_e REAL NOT NULL,
		gen_t REAL NOT NULL,
		load_t REAL NOT NULL,
		fuel REAL NOT NULL,
		t_out REAL NOT NULL,
		PRIMARY KEY (run_id, step)
	);
	`
	_, err := st.conn.Exec(schema)
	return err
}

// BeginRun opens a new run and makes it the target of recorded steps.
func (st *Store) BeginRun(scenario string, seed uint64) (string, error) {
	id := uuid.NewString()
	_, err := st.conn.Exec(`INSERT INTO runs (id, scenario, seed, started_at) VALUES (?, ?, ?, ?)`,
		id, scenario, int64(seed), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	st.mu.Lock()
	st.runID = id
	st.pending = st.pending[:0]
	st.err = nil
	st.mu.Unlock()

	st.log.Debug("run started", zap.String("run", id), zap.String("scenario", scenario))
	return id, nil
}

// RecordStep buffers one step of the open run, writing a batch when full.
// A batch that fails to write is dropped.
func (st *Store) RecordStep(r simulator.StepResult) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.runID == "" {
		return ErrNoRun
	}
	st.pending = append(st.pending, Step{
		RunID:       st.runID,
		Step:        r.Step,
		Timestamp:   r.Timestamp,
		GenE:        r.GenE,
		LoadE:       r.LoadE,
		GenT:        r.GenT,
		LoadT:       r.LoadT,
		Fuel:        r.Fuel,
		OutdoorTemp: r.OutdoorTemp,
	})
	if len(st.pending) < st.batchSize {
		return nil
	}
	return st.flushLocked()
}

func (st *Store) flushLocked() error {
	if len(st.pending) == 0 {
		return nil
	}
	batch := st.pending
	st.pending = st.pending[:0]

	tx, err := st.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT INTO steps
		(run_id, step, ts, gen_e, load_e, gen_t, load_t, fuel, t_out)
		VALUES (:run_id, :step, :ts, :gen_e, :load_e, :gen_t, :load_t, :fuel, :t_out)`, batch)
	if err != nil {
		return fmt.Errorf("insert steps: %w", err)
	}
	return tx.Commit()
}

// FinishRun writes outstanding steps and the run totals, then closes the run.
// It returns the first error met while recording through the callback.
func (st *Store) FinishRun(s simulator.Summary) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.runID == "" {
		return ErrNoRun
	}
	if err := st.flushLocked(); err != nil {
		return err
	}
	_, err := st.conn.Exec(`UPDATE runs SET finished_at = ?, steps = ?,
		gen_e_kwh = ?, load_e_kwh = ?, gen_t_kwh = ?, load_t_kwh = ?, fuel_kwh = ?
		WHERE id = ?`,
		time.Now().UTC(), s.Steps, s.GenEKWh, s.LoadEKWh, s.GenTKWh, s.LoadTKWh, s.FuelKWh, st.runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	st.log.Debug("run finished", zap.String("run", st.runID), zap.Int("steps", s.Steps))
	st.runID = ""
	return st.err
}

// Runs returns all stored runs, newest first.
func (st *Store) Runs() ([]Run, error) {
	var runs []Run
	err := st.conn.Select(&runs, `SELECT * FROM runs ORDER BY started_at DESC`)
	return runs, err
}

// Steps returns the stored steps of a run in order.
func (st *Store) Steps(runID string) ([]Step, error) {
	var steps []Step
	err := st.conn.Select(&steps,
		`SELECT run_id, step, ts, gen_e, load_e, gen_t, load_t, fuel, t_out
		 FROM steps WHERE run_id = ? ORDER BY step`, runID)
	return steps, err
}

// OnState implements simulator.Callback.
func (st *Store) OnState(simulator.State) {}

// OnSummary implements simulator.Callback.
func (st *Store) OnSummary(simulator.Summary) {}

// OnStep implements simulator.Callback. Write errors are kept and reported
// by FinishRun.
func (st *Store) OnStep(r simulator.StepResult) {
	if err := st.RecordStep(r); err != nil {
		st.log.Error("failed to record step", zap.Int("step", r.Step), zap.Error(err))
		st.mu.Lock()
		if st.err == nil {
			st.err = err
		}
		st.mu.Unlock()
	}
}
