// Package report serializes run results to deterministic JSON.
//
// All artifacts go through MarshalCanonical: object keys are sorted by
// UTF-16 code units at every depth (RFC 8785 ordering), strings are NFC
// normalized, HTML characters are not escaped, and arrays keep their
// order. Two runs over the same input therefore produce byte-identical
// files, and Hash over those bytes is a usable cache key.
package report
