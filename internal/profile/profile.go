// Package profile loads and validates investor profile files.
//
// Profiles may be written as YAML, JSON or CUE. Every format is unified with
// the embedded #InvestorProfile CUE definition before decoding, so all
// three share one schema: closed fields, a risk tolerance of low, medium or
// high (default medium), and a non-negative carbon limit.
//
// The engine itself is tolerant of profiles that fail validation; this
// package is what files and the CLI go through.
package profile

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/eain/internal/model"
)

//go:embed schema.cue
var schemaSrc string

// WrapperField is the optional top-level field holding the profile, as in
//
//	profile: { risk_tolerance: "low" }
const WrapperField = "profile"

// LoadError reports a profile file that could not be parsed or does not
// match the schema.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadFile reads an investor profile from a .yaml, .yml, .json or .cue file.
func LoadFile(path string) (model.InvestorProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.InvestorProfile{}, fmt.Errorf("load profile: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml", ".json":
		return loadYAML(path, data)
	case ".cue":
		return loadCUE(path, data)
	default:
		return model.InvestorProfile{}, &LoadError{Path: path, Message: fmt.Sprintf("unsupported profile format %q", ext)}
	}
}

// Parse decodes a YAML or JSON profile document.
func Parse(data []byte) (model.InvestorProfile, error) {
	return loadYAML("<input>", data)
}

func loadYAML(path string, data []byte) (model.InvestorProfile, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.InvestorProfile{}, &LoadError{Path: path, Message: err.Error()}
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if inner, ok := doc[WrapperField].(map[string]any); ok && len(doc) == 1 {
		doc = inner
	}

	ctx := cuecontext.New()
	v := ctx.Encode(doc)
	return decode(ctx, path, v)
}

func loadCUE(path string, data []byte) (model.InvestorProfile, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return model.InvestorProfile{}, formatCUEError(path, err)
	}
	if inner := v.LookupPath(cue.ParsePath(WrapperField)); inner.Exists() {
		v = inner
	}
	return decode(ctx, path, v)
}

// decode unifies v with the schema and decodes the concrete result.
func decode(ctx *cue.Context, path string, v cue.Value) (model.InvestorProfile, error) {
	schema, err := Schema(ctx)
	if err != nil {
		return model.InvestorProfile{}, err
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return model.InvestorProfile{}, formatCUEError(path, err)
	}

	var p model.InvestorProfile
	if err := unified.Decode(&p); err != nil {
		return model.InvestorProfile{}, formatCUEError(path, err)
	}
	return p, nil
}

// Schema compiles the #InvestorProfile definition in ctx.
func Schema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile profile schema: %w", err)
	}
	return v.LookupPath(cue.ParsePath("#InvestorProfile")), nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(path string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Path: path, Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Path: path, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
