package client

import (
	"strings"

	"github.com/google/uuid"
)

// IDGenerator issues atom and decision ids.
// Implemented by RandomIDs (production) and testutil.SequentialIDs (tests).
type IDGenerator interface {
	AtomID() string
	DecisionID() string
}

// Id shapes: prefix plus this many lowercase hex characters.
const (
	AtomIDPrefix     = "atom_"
	AtomIDHexLen     = 12
	DecisionIDPrefix = "decision_"
	DecisionIDHexLen = 10
)

// RandomIDs derives ids from random (version 4) UUIDs.
//
// Version 4 is used rather than the time-ordered version 7 because ids are
// truncated, and the leading bits of a v7 UUID are a millisecond timestamp.
//
// Thread-safety: RandomIDs is stateless and safe for concurrent use.
type RandomIDs struct{}

// AtomID returns "atom_" followed by 12 random hex characters.
func (RandomIDs) AtomID() string {
	return AtomIDPrefix + randomHex(AtomIDHexLen)
}

// DecisionID returns "decision_" followed by 10 random hex characters.
func (RandomIDs) DecisionID() string {
	return DecisionIDPrefix + randomHex(DecisionIDHexLen)
}

func randomHex(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
