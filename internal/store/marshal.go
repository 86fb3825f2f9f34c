package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/eain/internal/model"
)

// marshalAtom converts an atom to canonical JSON TEXT for storage.
func marshalAtom(atom Atom) (string, error) {
	data, err := model.MarshalCanonical(atom)
	if err != nil {
		return "", fmt.Errorf("marshal atom %s: %w", atom.ID, err)
	}
	return string(data), nil
}

// unmarshalAtom parses stored JSON TEXT back into an atom.
// Asset snapshot numbers decode as json.Number to keep large integers exact.
func unmarshalAtom(data string) (Atom, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()

	var atom Atom
	if err := dec.Decode(&atom); err != nil {
		return Atom{}, fmt.Errorf("unmarshal atom: %w", err)
	}
	return atom, nil
}
