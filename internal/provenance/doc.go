// Package provenance persists the raw evidence behind each decision.
//
// A Recorder hashes an asset snapshot with model.ContentHash and writes one
// JSON file per record, named {symbol}_{unix_seconds}.json, into its
// directory. The returned receipt (symbol, hash, path, timestamp) is what a
// decision embeds; the raw snapshot lives only in the file.
//
// Records are verifiable after the fact: Load reads a file back and Verify
// recomputes the hash of its raw snapshot. Because hashing goes through
// canonical JSON, key order in the snapshot never affects the hash.
//
// Concurrent Record calls for the same symbol within the same second target
// the same path and the last write wins.
package provenance
