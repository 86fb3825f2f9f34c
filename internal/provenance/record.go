package provenance

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/eain/internal/model"
)

// ErrHashMismatch is returned by Verify when a record's raw snapshot no
// longer hashes to its stored hash.
var ErrHashMismatch = errors.New("provenance: hash mismatch")

// Record is the on-disk provenance document.
//
// Fields are declared in key order so the pretty-printed file has sorted
// keys at every level.
type Record struct {
	Hash      string              `json:"hash"`
	Raw       model.AssetSnapshot `json:"raw"`
	Source    string              `json:"source"`
	Symbol    *string             `json:"symbol"`
	Tag       *string             `json:"tag"`
	Timestamp int64               `json:"timestamp"`
}

// Receipt returns the lightweight reference to this record stored at path.
func (r Record) Receipt(path string) model.Receipt {
	sym := model.UnknownSymbol
	if r.Symbol != nil {
		sym = *r.Symbol
	}
	return model.Receipt{
		Symbol:    sym,
		Hash:      r.Hash,
		Path:      path,
		Timestamp: r.Timestamp,
	}
}

// Load reads a provenance record from path.
//
// Numbers in the raw snapshot are kept as json.Number so Verify hashes the
// exact values that were written.
func Load(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("load provenance %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode provenance %s: %w", path, err)
	}
	if rec.Hash == "" {
		return Record{}, fmt.Errorf("decode provenance %s: missing hash", path)
	}
	return rec, nil
}

// Verify recomputes the content hash of rec.Raw and compares it to rec.Hash.
func Verify(rec Record) error {
	got, err := model.ContentHash(rec.Raw)
	if err != nil {
		return fmt.Errorf("verify provenance: %w", err)
	}
	if got != rec.Hash {
		return fmt.Errorf("%w: recorded %s, computed %s", ErrHashMismatch, rec.Hash, got)
	}
	return nil
}

// VerifyFile loads and verifies the record at path.
func VerifyFile(path string) (Record, error) {
	rec, err := Load(path)
	if err != nil {
		return Record{}, err
	}
	if err := Verify(rec); err != nil {
		return rec, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// List returns the record files in dir, sorted by name.
func List(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list provenance %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
