package provenance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/eain/internal/model"
)

// Clock supplies record timestamps.
type Clock interface {
	Now() time.Time
}

// unknownName replaces a missing or unusable symbol in file names.
const unknownName = "unknown"

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Recorder writes provenance records into a directory.
//
// Implements engine.Recorder.
//
// Thread-safety: Record is safe for concurrent use, except that two records
// for the same symbol in the same second share one path.
type Recorder struct {
	dir    string
	clock  Clock
	logger *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock sets the clock used for record timestamps.
func WithClock(c Clock) Option {
	return func(r *Recorder) {
		r.clock = c
	}
}

// WithLogger sets the recorder's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// NewRecorder creates a recorder writing into dir. The directory is created
// on first use.
func NewRecorder(dir string, opts ...Option) *Recorder {
	r := &Recorder{
		dir:    dir,
		clock:  systemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the directory records are written to.
func (r *Recorder) Dir() string {
	return r.dir
}

// Record hashes snapshot and persists it with tag.
//
// On a write failure Record still returns the receipt it would have issued
// (hash and attempted path) together with the error; callers decide whether
// a receipt for an unwritten file is useful.
func (r *Recorder) Record(snapshot model.AssetSnapshot, tag string) (model.Receipt, error) {
	hash, err := model.ContentHash(snapshot)
	if err != nil {
		return model.Receipt{}, fmt.Errorf("hash snapshot: %w", err)
	}

	raw, err := hashedForm(snapshot)
	if err != nil {
		return model.Receipt{}, fmt.Errorf("encode snapshot: %w", err)
	}

	rec := Record{
		Hash:      hash,
		Raw:       raw,
		Source:    snapshot.Source(),
		Timestamp: r.clock.Now().Unix(),
	}
	if sym, ok := snapshot.Text(model.FieldSymbol); ok {
		rec.Symbol = &sym
	}
	if tag != "" {
		rec.Tag = &tag
	}

	path := filepath.Join(r.dir, FileName(rec.Symbol, rec.Timestamp))
	receipt := rec.Receipt(path)

	if err := r.write(path, rec); err != nil {
		r.logger.Error("provenance write failed", "path", path, "error", err)
		return receipt, err
	}

	r.logger.Info("provenance recorded", "symbol", receipt.Symbol, "hash", hash, "path", path)
	return receipt, nil
}

// hashedForm returns snapshot as the canonical encoder saw it. Values with
// no JSON form, such as NaN or a func, become the strings they were hashed
// as, so the record always writes and re-verifies.
func hashedForm(snapshot model.AssetSnapshot) (model.AssetSnapshot, error) {
	data, err := model.MarshalCanonical(snapshot)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out model.AssetSnapshot
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Recorder) write(path string, rec Record) error {
	data, err := model.MarshalPretty(rec)
	if err != nil {
		return fmt.Errorf("marshal provenance: %w", err)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create provenance dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write provenance: %w", err)
	}
	return nil
}

// FileName returns the record file name for symbol at ts. A nil symbol is
// written as "unknown"; characters outside [A-Za-z0-9._-] become '_'.
func FileName(symbol *string, ts int64) string {
	name := unknownName
	if symbol != nil {
		name = sanitize(*symbol)
	}
	return name + "_" + strconv.FormatInt(ts, 10) + ".json"
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." {
		return unknownName
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
