// Package model provides the evaluation data types for EAIN.
//
// This package contains type definitions, canonical serialization, and
// content hashing only. Every other internal package imports model; model
// imports nothing internal. This keeps the evidence types the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - AssetSnapshot is the raw provider mapping, kept verbatim for provenance
//   - Every snapshot field access is a safe lookup that never panics
//   - Multi-name fields (carbon, volatility) resolve through ordered alias lists
//   - All JSON tags use snake_case
//   - Content hashes are SHA-256 over canonical JSON (sorted keys, NFC strings)
package model
