package schema

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Encode serializes a Schema to a stable opaque byte form, stored as
// the "schema" blob in MetadataStore and the schema snapshot object in
// ObjectStore (spec.md §3 invariant 2).
func Encode(s Schema) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("schema: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a schema blob previously produced by Encode. A failure
// here is what spec.md §7 calls INVALID_SCHEMA.
func Decode(b []byte) (Schema, error) {
	var s Schema
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&s); err != nil {
		return Schema{}, fmt.Errorf("schema: decode: %w", err)
	}
	return s, nil
}

// Equal reports whether two encoded schema blobs are byte-for-byte
// identical, used by CreateDataset's idempotency check (spec.md §4.1
// step 3).
func Equal(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// EncodeRecord serializes a Record to the opaque form stored as the
// value of a record object in the KV store.
func EncodeRecord(r Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, fmt.Errorf("schema: encode record: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRecord parses a record blob previously produced by EncodeRecord.
func DecodeRecord(b []byte) (Record, error) {
	var r Record
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&r); err != nil {
		return Record{}, fmt.Errorf("schema: decode record: %w", err)
	}
	return r, nil
}
