package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ContentHash returns the hex SHA-256 of v's canonical JSON.
// Two values with the same keys and values hash identically regardless of
// map iteration or construction order.
func ContentHash(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("content hash: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// MustContentHash is like ContentHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustContentHash(v any) string {
	h, err := ContentHash(v)
	if err != nil {
		panic(err)
	}
	return h
}
