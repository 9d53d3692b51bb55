// Package runindex keeps a queryable SQLite index of runs and their per-tick
// statistics. The JSONL step logs remain the source of truth; tick rows are
// written asynchronously and dropped if the writer falls behind.
package runindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"wildfire-ca/internal/runner"
	"wildfire-ca/internal/sims/fire"
)

// Run is one row of the runs table.
type Run struct {
	ID          string
	Scenario    string
	Seed        uint64
	Rows        int
	Cols        int
	StartedAt   time.Time
	Steps       int
	Burned      int
	BurnRatio   float64
	PeakBurning int
	Completed   bool
	LogPath     string
}

type tickRow struct {
	runID string
	stats fire.StepStats
}

// Index is an open run index.
type Index struct {
	db *sql.DB

	ch    chan tickRow
	wg    sync.WaitGroup
	once  sync.Once
	drops atomic.Int64

	// mu guards closed and sends on ch against Close.
	mu     sync.RWMutex
	closed bool
}

// Open creates or opens the index at path.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, errors.New("runindex: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	ix := &Index{db: db, ch: make(chan tickRow, 8192)}
	ix.wg.Add(1)
	go func() {
		defer ix.wg.Done()
		ix.loop()
	}()
	return ix, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			seed INTEGER NOT NULL,
			grid_rows INTEGER NOT NULL,
			grid_cols INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			steps INTEGER NOT NULL DEFAULT 0,
			burned INTEGER NOT NULL DEFAULT 0,
			burn_ratio REAL NOT NULL DEFAULT 0,
			peak_burning INTEGER NOT NULL DEFAULT 0,
			completed INTEGER NOT NULL DEFAULT 0,
			log_path TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			tick INTEGER NOT NULL,
			fuel INTEGER NOT NULL,
			burning INTEGER NOT NULL,
			burned INTEGER NOT NULL,
			wet INTEGER NOT NULL,
			perimeter INTEGER NOT NULL,
			total_heat REAL NOT NULL,
			spot_events INTEGER NOT NULL,
			suppressed INTEGER NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains pending tick rows and closes the database.
func (ix *Index) Close() error {
	var err error
	ix.once.Do(func() {
		ix.mu.Lock()
		ix.closed = true
		close(ix.ch)
		ix.mu.Unlock()
		ix.wg.Wait()
		err = ix.db.Close()
	})
	return err
}

// Dropped reports how many tick rows were discarded under back-pressure.
func (ix *Index) Dropped() int64 { return ix.drops.Load() }

// BeginRun inserts the run row. It must precede any tick rows for the run.
func (ix *Index) BeginRun(ctx context.Context, r Run) error {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	_, err := ix.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs(id,scenario,seed,grid_rows,grid_cols,started_at,log_path) VALUES(?,?,?,?,?,?,?)`,
		r.ID, r.Scenario, int64(r.Seed), r.Rows, r.Cols, r.StartedAt.UTC().Format(time.RFC3339Nano), r.LogPath)
	if err != nil {
		return fmt.Errorf("begin run %s: %w", r.ID, err)
	}
	return nil
}

// FinishRun stores the run summary.
func (ix *Index) FinishRun(ctx context.Context, id string, s runner.Summary) error {
	_, err := ix.db.ExecContext(ctx,
		`UPDATE runs SET steps=?, burned=?, burn_ratio=?, peak_burning=?, completed=? WHERE id=?`,
		s.Steps, s.Final.Burned, s.Final.BurnRatio, s.PeakBurning, boolInt(s.Completed), id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

// Observer returns a runner.Observer that queues tick rows for id.
func (ix *Index) Observer(id string) runner.Observer {
	return runner.ObserverFunc(func(_ int, stats fire.StepStats, _ []fire.SpotEvent) error {
		ix.enqueue(tickRow{runID: id, stats: stats})
		return nil
	})
}

func (ix *Index) enqueue(row tickRow) {
	if ix == nil {
		return
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		return
	}
	select {
	case ix.ch <- row:
	default:
		ix.drops.Add(1)
	}
}

func (ix *Index) loop() {
	ctx := context.Background()
	insert, err := ix.db.Prepare(`INSERT OR REPLACE INTO ticks(run_id,tick,fuel,burning,burned,wet,perimeter,total_heat,spot_events,suppressed) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		for range ix.ch {
			ix.drops.Add(1)
		}
		return
	}
	defer insert.Close()

	const maxBatch = 256
	batch := make([]tickRow, 0, maxBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		tx, err := ix.db.BeginTx(ctx, nil)
		if err != nil {
			ix.drops.Add(int64(len(batch)))
			batch = batch[:0]
			return
		}
		stmt := tx.StmtContext(ctx, insert)
		for _, r := range batch {
			s := r.stats
			if _, err := stmt.ExecContext(ctx, r.runID, s.Step, s.Fuel, s.Burning, s.Burned, s.Wet,
				s.Perimeter, s.TotalHeat, s.SpotEvents, s.Suppressed); err != nil {
				ix.drops.Add(1)
			}
		}
		if err := tx.Commit(); err != nil {
			ix.drops.Add(int64(len(batch)))
		}
		batch = batch[:0]
	}
	for row := range ix.ch {
		batch = append(batch, row)
		if len(batch) >= maxBatch || len(ix.ch) == 0 {
			flush()
		}
	}
	flush()
}

// Runs lists runs, newest first.
func (ix *Index) Runs(ctx context.Context) ([]Run, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT id,scenario,seed,grid_rows,grid_cols,started_at,steps,burned,burn_ratio,peak_burning,completed,log_path
		 FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var seed int64
		var started string
		var completed int
		if err := rows.Scan(&r.ID, &r.Scenario, &seed, &r.Rows, &r.Cols, &started, &r.Steps,
			&r.Burned, &r.BurnRatio, &r.PeakBurning, &completed, &r.LogPath); err != nil {
			return nil, err
		}
		r.Seed = uint64(seed)
		r.Completed = completed != 0
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		out = append(out, r)
	}
	return out, rows.Err()
}

// BurningSeries returns the burning-cell count per tick for a run.
func (ix *Index) BurningSeries(ctx context.Context, id string) ([]int, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT burning FROM ticks WHERE run_id=? ORDER BY tick`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
