package market

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eain/internal/model"
)

// File serves snapshots from a YAML or JSON fixture document keyed by
// symbol:
//
//	XYZ:
//	  sector: Tobacco
//	  percent_change: 2
//
// Used for offline evaluation and tests. Snapshots are returned as copies,
// with symbol and source filled in when the document omits them.
type File struct {
	path   string
	assets map[string]model.AssetSnapshot
	index  map[string]string // upper-cased symbol -> document key
	clock  Clock
}

// LoadFile reads the fixture document at path.
func LoadFile(path string, clock Clock) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assets file: %w", err)
	}

	var doc map[string]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse assets file %s: %w", path, err)
	}
	if clock == nil {
		clock = systemClock{}
	}

	f := &File{
		path:   path,
		assets: make(map[string]model.AssetSnapshot, len(doc)),
		index:  make(map[string]string, len(doc)),
		clock:  clock,
	}
	for sym, fields := range doc {
		snap := model.AssetSnapshot(fields)
		if snap == nil {
			snap = model.AssetSnapshot{}
		}
		f.assets[sym] = snap
		f.index[strings.ToUpper(sym)] = sym
	}
	return f, nil
}

// Name returns "file".
func (f *File) Name() string { return SourceFile }

// Symbols returns the document's symbols, sorted.
func (f *File) Symbols() []string {
	out := make([]string, 0, len(f.assets))
	for sym := range f.assets {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Fetch returns the snapshot for symbol. Lookup ignores case.
func (f *File) Fetch(_ context.Context, symbol string) (model.AssetSnapshot, error) {
	key, ok := f.index[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return nil, fmt.Errorf("file %s: %s: %w", f.path, symbol, ErrNoData)
	}

	out := f.assets[key].Clone()
	if _, ok := out.Value("symbol"); !ok {
		out["symbol"] = key
	}
	if _, ok := out.Value("source"); !ok {
		out["source"] = SourceFile
	}
	if _, ok := out.Value("timestamp"); !ok {
		out["timestamp"] = f.clock.Now().Unix()
	}
	return out, nil
}
