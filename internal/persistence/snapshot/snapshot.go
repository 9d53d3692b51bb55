// Package snapshot writes and reads persisted engine state as JSON, optionally
// zstd-compressed, and checks it against an embedded schema before decoding.
package snapshot

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"wildfire-ca/internal/sims/fire"
)

//go:embed state.schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("state.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

// Compressed reports whether path selects zstd framing.
func Compressed(path string) bool { return strings.HasSuffix(path, ".zst") }

// Encode writes st as JSON to w.
func Encode(w io.Writer, st fire.State) error {
	enc := json.NewEncoder(w)
	return enc.Encode(st)
}

// Decode reads, validates and decodes one state from r.
func Decode(r io.Reader) (fire.State, error) {
	var st fire.State
	raw, err := io.ReadAll(r)
	if err != nil {
		return st, err
	}
	if err := Validate(raw); err != nil {
		return st, err
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return st, fmt.Errorf("decode state: %w", err)
	}
	return st, nil
}

// Validate checks raw JSON against the state schema.
func Validate(raw []byte) error {
	s, err := compiled()
	if err != nil {
		return fmt.Errorf("compile state schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", fire.ErrInvalidConfig, err)
	}
	return nil
}

// WriteFile saves st at path, creating parent directories. A ".zst" suffix
// compresses the JSON.
func WriteFile(path string, st fire.State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	var zw *zstd.Encoder
	if Compressed(path) {
		zw, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		w = zw
	}
	bw := bufio.NewWriterSize(w, 256*1024)
	if err := Encode(bw, st); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return err
		}
	}
	return f.Close()
}

// ReadFile loads a state written by WriteFile.
func ReadFile(path string) (fire.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return fire.State{}, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReaderSize(f, 256*1024)
	if Compressed(path) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return fire.State{}, err
		}
		defer dec.Close()
		r = dec
	}
	st, err := Decode(r)
	if err != nil {
		return st, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

// Save captures e and writes it to path.
func Save(path string, e *fire.Engine) error {
	st, err := e.State()
	if err != nil {
		return err
	}
	return WriteFile(path, st)
}

// Load reads path and restores an engine from it.
func Load(path string) (*fire.Engine, error) {
	st, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return fire.Restore(st)
}
