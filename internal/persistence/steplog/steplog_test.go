package steplog

import (
	"context"
	"testing"

	"wildfire-ca/internal/runner"
	"wildfire-ca/internal/sims/fire"
)

func TestWriterRecordsEveryTick(t *testing.T) {
	e, err := fire.New(10, 10, fire.VonNeumann, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Initialize(0.9, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	w, err := Create(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if w.RunID() == "" {
		t.Fatal("empty run id")
	}
	var seen []fire.StepStats
	r := runner.New(e,
		runner.WithIgnitions([]runner.Ignition{{Row: 5, Col: 5, Intensity: 1}}),
		runner.WithObserver(w),
		runner.WithObserver(runner.ObserverFunc(func(_ int, s fire.StepStats, _ []fire.SpotEvent) error {
			seen = append(seen, s)
			return nil
		})),
	)
	if _, err := r.Run(context.Background(), 12); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := w.Write(Entry{}); err == nil {
		t.Fatal("write after close should fail")
	}

	entries, err := ReadFile(w.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(entries) != len(seen) {
		t.Fatalf("logged %d entries, observed %d ticks", len(entries), len(seen))
	}
	for i, ent := range entries {
		if ent.Tick != i+1 || ent.RunID != w.RunID() {
			t.Fatalf("entry %d = tick %d run %q", i, ent.Tick, ent.RunID)
		}
		if ent.Stats != seen[i] {
			t.Fatalf("entry %d stats %+v, want %+v", i, ent.Stats, seen[i])
		}
	}
}
