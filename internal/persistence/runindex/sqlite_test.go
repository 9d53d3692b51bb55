package runindex

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"wildfire-ca/internal/runner"
	"wildfire-ca/internal/sims/fire"
)

func TestIndexRecordsRun(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "runs.sqlite")
	ix, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	e, err := fire.New(12, 12, fire.Moore, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Initialize(0.75, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	const id = "run-1"
	if err := ix.BeginRun(ctx, Run{ID: id, Scenario: "test", Seed: 5, Rows: 12, Cols: 12, StartedAt: time.Unix(100, 0)}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	var burning []int
	r := runner.New(e,
		runner.WithIgnitions([]runner.Ignition{{Row: 6, Col: 6, Intensity: 1}}),
		runner.WithObserver(ix.Observer(id)),
		runner.WithObserver(runner.ObserverFunc(func(_ int, s fire.StepStats, _ []fire.SpotEvent) error {
			burning = append(burning, s.Burning)
			return nil
		})),
	)
	sum, err := r.Run(ctx, 15)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := ix.FinishRun(ctx, id, sum); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := ix.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ix.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if n := ix.Dropped(); n != 0 {
		t.Fatalf("dropped %d rows", n)
	}

	ix, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ix.Close()
	runs, err := ix.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs", len(runs))
	}
	got := runs[0]
	if got.ID != id || got.Steps != sum.Steps || got.Burned != sum.Final.Burned || got.Seed != 5 {
		t.Fatalf("run row = %+v, summary = %+v", got, sum)
	}
	if !got.StartedAt.Equal(time.Unix(100, 0)) {
		t.Fatalf("started_at = %v", got.StartedAt)
	}
	series, err := ix.BurningSeries(ctx, id)
	if err != nil {
		t.Fatalf("BurningSeries: %v", err)
	}
	if len(series) != len(burning) {
		t.Fatalf("series has %d ticks, want %d", len(series), len(burning))
	}
	for i := range series {
		if series[i] != burning[i] {
			t.Fatalf("tick %d burning = %d, want %d", i+1, series[i], burning[i])
		}
	}
}

func TestCloseRacesObservers(t *testing.T) {
	ix, err := Open(filepath.Join(t.TempDir(), "runs.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := ix.BeginRun(context.Background(), Run{ID: "race", Rows: 1, Cols: 1}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	obs := ix.Observer("race")
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tick := 1; tick <= 500; tick++ {
				if err := obs.OnStep(tick, fire.StepStats{Step: tick}, nil); err != nil {
					t.Errorf("OnStep: %v", err)
					return
				}
			}
		}()
	}
	if err := ix.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	wg.Wait()
}
