package rpc

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// EncodePutRecords serializes a PutRecordsRequest to the opaque form
// published on the listener bus (spec.md §6, "serialized_request_bytes").
func EncodePutRecords(req PutRecordsRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(req); err != nil {
		return nil, fmt.Errorf("rpc: encode put_records: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePutRecords parses a payload previously produced by
// EncodePutRecords.
func DecodePutRecords(b []byte) (PutRecordsRequest, error) {
	var req PutRecordsRequest
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&req); err != nil {
		return PutRecordsRequest{}, fmt.Errorf("rpc: decode put_records: %w", err)
	}
	return req, nil
}
