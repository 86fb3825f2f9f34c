// Package client is the facade callers use to evaluate assets.
//
// Every evaluation first records its inputs as atoms (an investor atom and
// an asset atom), then runs the engine, then stores the decision itself as
// an atom under a fresh decision id. The returned decision carries all
// three ids so an auditor can fetch the exact inputs later with GetAtom.
//
// The facade never lets an evaluation fault escape: a panic or error from
// the evaluator becomes a fallback deprioritize decision tagged with the
// metta_error rule. Batch evaluation is a sequential fold that logs and
// omits any item that still fails, typically because the atom store
// rejected a write.
package client
