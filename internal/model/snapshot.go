package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// UnknownSymbol is reported for snapshots carrying neither symbol nor id.
const UnknownSymbol = "UNKNOWN"

// UnknownSource is reported for snapshots without a source tag.
const UnknownSource = "unknown"

// Field names a logical snapshot attribute and the ordered keys it may be
// found under. Lookups take the first key that is present and usable, so a
// new provider alias is added by extending Aliases, not by touching rules.
type Field struct {
	Name    string
	Aliases []string
}

// Snapshot fields read by the rule chain and the provenance recorder.
var (
	FieldSymbol         = Field{Name: "symbol", Aliases: []string{"symbol", "id"}}
	FieldSource         = Field{Name: "source", Aliases: []string{"source"}}
	FieldSector         = Field{Name: "sector", Aliases: []string{"sector"}}
	FieldPercentChange  = Field{Name: "percent_change", Aliases: []string{"percent_change"}}
	FieldCarbon         = Field{Name: "carbon", Aliases: []string{"carbon_emissions", "carbon_score"}}
	FieldExpectedReturn = Field{Name: "expected_return", Aliases: []string{"expected_return"}}
	FieldVolatility     = Field{Name: "volatility", Aliases: []string{"volatility", "beta", "stddev"}}
)

// AssetSnapshot is one provider response for one symbol: a flat keyed
// mapping where only symbol is expected and every other field may be absent.
//
// A snapshot is evidence. It is never mutated after creation; use Clone
// before handing it to code that may hold on to it.
type AssetSnapshot map[string]any

// Value returns the raw value under key. Absent keys and explicit nulls both
// report ok=false.
func (s AssetSnapshot) Value(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Number resolves f to the first alias holding a parseable, finite number.
// It returns the number and the alias it came from.
func (s AssetSnapshot) Number(f Field) (float64, string, bool) {
	for _, key := range f.Aliases {
		raw, ok := s.Value(key)
		if !ok {
			continue
		}
		if n, ok := ParseNumber(raw); ok {
			return n, key, true
		}
	}
	return 0, "", false
}

// Text resolves f to the first alias holding a non-blank string.
func (s AssetSnapshot) Text(f Field) (string, bool) {
	for _, key := range f.Aliases {
		raw, ok := s.Value(key)
		if !ok {
			continue
		}
		str, ok := raw.(string)
		if !ok || strings.TrimSpace(str) == "" {
			continue
		}
		return str, true
	}
	return "", false
}

// Symbol returns the snapshot symbol, falling back to its id, then UnknownSymbol.
func (s AssetSnapshot) Symbol() string {
	if sym, ok := s.Text(FieldSymbol); ok {
		return sym
	}
	return UnknownSymbol
}

// Source returns the provider tag, or UnknownSource.
func (s AssetSnapshot) Source() string {
	if src, ok := s.Text(FieldSource); ok {
		return src
	}
	return UnknownSource
}

// Clone returns a deep copy of the snapshot's maps and slices.
func (s AssetSnapshot) Clone() AssetSnapshot {
	if s == nil {
		return nil
	}
	out := make(AssetSnapshot, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = cloneValue(elem)
		}
		return out
	case AssetSnapshot:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		return v
	}
}

// ParseNumber converts a loosely typed provider value to a finite float64.
// Numbers, json.Number and numeric strings parse; booleans, NaN, infinities
// and everything else do not.
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
