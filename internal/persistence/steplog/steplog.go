// Package steplog records per-tick statistics as zstd-compressed JSON lines.
package steplog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"wildfire-ca/internal/sims/fire"
)

// Entry is one logged tick.
type Entry struct {
	RunID string           `json:"run_id"`
	Tick  int              `json:"tick"`
	Stats fire.StepStats   `json:"stats"`
	Spots []fire.SpotEvent `json:"spots,omitempty"`
}

// Writer appends entries to <dir>/<run id>.jsonl.zst. It is safe for
// concurrent use.
type Writer struct {
	runID string
	path  string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// Create opens a log for runID under dir. An empty runID gets a fresh one.
func Create(dir, runID string) (*Writer, error) {
	if runID == "" {
		runID = NewRunID()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.jsonl.zst", runID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{
		runID: runID,
		path:  path,
		f:     f,
		enc:   enc,
		w:     bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

// RunID returns the run identifier stamped on each entry.
func (w *Writer) RunID() string { return w.runID }

// Path returns the log file path.
func (w *Writer) Path() string { return w.path }

// OnStep implements runner.Observer.
func (w *Writer) OnStep(tick int, stats fire.StepStats, spots []fire.SpotEvent) error {
	return w.Write(Entry{RunID: w.runID, Tick: tick, Stats: stats, Spots: spots})
}

// Write appends one entry.
func (w *Writer) Write(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return os.ErrClosed
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Close flushes and closes the log.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	var err error
	if ferr := w.w.Flush(); ferr != nil {
		err = ferr
	}
	if cerr := w.enc.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := w.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	w.w, w.enc, w.f = nil, nil, nil
	return err
}

// Read decodes every entry from a compressed log stream.
func Read(r io.Reader) ([]Entry, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	var out []Entry
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("line %d: %w", len(out)+1, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// ReadFile decodes a log written by Writer.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := Read(f)
	if err != nil {
		return entries, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}
