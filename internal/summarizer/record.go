package summarizer

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/reinferio/saltfish/internal/schema"
)

// RecordSummarizer holds one MomentsSummarizer per NUMERICAL feature and
// one CategoricalHistogramSummarizer per CATEGORICAL feature of a
// schema, in schema order — a direct translation of
// original_source/src/record_summarizer.hpp's RecordSummarizer
// template, specialized to the standard pair of summarizers.
type RecordSummarizer struct {
	Schema       schema.Schema
	Numerical    []MomentsSummarizer
	Categorical  []CategoricalHistogramSummarizer
}

// NewRecordSummarizer builds an empty summarizer sized to s.
func NewRecordSummarizer(s schema.Schema) *RecordSummarizer {
	numericals, categoricals, _ := s.Counts()
	rs := &RecordSummarizer{
		Schema:      s,
		Numerical:   make([]MomentsSummarizer, numericals),
		Categorical: make([]CategoricalHistogramSummarizer, categoricals),
	}
	for i := range rs.Categorical {
		rs.Categorical[i].ValueCounts = map[string]uint64{}
	}
	return rs
}

// PushRecord validates r against the summarizer's schema and folds its
// values into the running aggregates (spec.md §4.9 step 3).
func (rs *RecordSummarizer) PushRecord(r schema.Record) error {
	if err := schema.ValidateRecord(rs.Schema, r); err != nil {
		return fmt.Errorf("summarizer: %w", err)
	}
	for i, v := range r.Numericals {
		rs.Numerical[i].PushValue(v)
	}
	for i, v := range r.Categoricals {
		rs.Categorical[i].PushValue(v)
	}
	return nil
}

// snapshot is the gob-serializable form of a RecordSummarizer, an
// idiomatic stand-in for the original's cereal::BinaryOutputArchive
// encoding of (schema, real_summ_, categorical_summ_).
type snapshot struct {
	SchemaBytes []byte
	Numerical   []MomentsSummarizer
	Categorical []CategoricalHistogramSummarizer
}

// Encode serializes rs to an opaque stable binary form.
func (rs *RecordSummarizer) Encode() ([]byte, error) {
	schemaBytes, err := schema.Encode(rs.Schema)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	s := snapshot{SchemaBytes: schemaBytes, Numerical: rs.Numerical, Categorical: rs.Categorical}
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("summarizer: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRecordSummarizer parses a snapshot previously produced by Encode.
func DecodeRecordSummarizer(b []byte) (*RecordSummarizer, error) {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&s); err != nil {
		return nil, fmt.Errorf("summarizer: decode snapshot: %w", err)
	}
	sch, err := schema.Decode(s.SchemaBytes)
	if err != nil {
		return nil, fmt.Errorf("summarizer: decode snapshot schema: %w", err)
	}
	return &RecordSummarizer{Schema: sch, Numerical: s.Numerical, Categorical: s.Categorical}, nil
}
