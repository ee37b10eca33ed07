// Package schema defines the Schema/Feature/Record data model and the
// validation rules of spec.md §3/§4.2, grounded on
// original_source/src/service_utils.cpp (schema_has_duplicates,
// check_record).
package schema

import (
	"errors"
	"fmt"
	"math"
)

// FeatureType is the type of a single feature in a schema.
type FeatureType int

const (
	NUMERICAL FeatureType = iota
	CATEGORICAL
	TEXT
	INVALID
)

func (t FeatureType) String() string {
	switch t {
	case NUMERICAL:
		return "NUMERICAL"
	case CATEGORICAL:
		return "CATEGORICAL"
	case TEXT:
		return "TEXT"
	default:
		return "INVALID"
	}
}

// Feature is one named, typed column of a Schema.
type Feature struct {
	Name string
	Type FeatureType
}

// Schema is the ordered, immutable feature list of a dataset.
type Schema struct {
	Features []Feature
}

// String renders the schema compactly, e.g. [("a":NUMERICAL), ("b":TEXT)],
// generalizing schema_to_str from the original source.
func (s Schema) String() string {
	out := "["
	for i, f := range s.Features {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("(%q:%s)", f.Name, f.Type)
	}
	return out + "]"
}

// Counts returns the number of NUMERICAL, CATEGORICAL and TEXT features
// in schema order.
func (s Schema) Counts() (numericals, categoricals, texts int) {
	for _, f := range s.Features {
		switch f.Type {
		case NUMERICAL:
			numericals++
		case CATEGORICAL:
			categoricals++
		case TEXT:
			texts++
		}
	}
	return
}

// Record is one row of feature values matching a Schema, in schema order.
type Record struct {
	Numericals  []float64
	Categoricals []string
	Texts        []string
}

var (
	// ErrDuplicateFeatureName is returned by Validate when two features
	// share a name.
	ErrDuplicateFeatureName = errors.New("schema contains duplicate feature names")
	// ErrInvalidFeatureType is returned by Validate when any feature has
	// type INVALID.
	ErrInvalidFeatureType = errors.New("schema contains a feature of type INVALID")
)

// Validate checks a Schema's structural invariants (spec.md §3
// invariant 5, §4.1 step 1): unique feature names, no INVALID feature.
func Validate(s Schema) error {
	seen := make(map[string]struct{}, len(s.Features))
	for _, f := range s.Features {
		if _, dup := seen[f.Name]; dup {
			return ErrDuplicateFeatureName
		}
		seen[f.Name] = struct{}{}
		if f.Type == INVALID {
			return ErrInvalidFeatureType
		}
	}
	return nil
}

// ValidateRecord checks that a Record's three sequences match schema's
// arity in schema order (spec.md §8 property 3). Returns a descriptive
// error on mismatch, nil on success. NaN values are permitted
// (represent a missing numerical).
func ValidateRecord(s Schema, r Record) error {
	if err := Validate(s); err != nil {
		return err
	}
	expNum, expCat, expText := s.Counts()
	if len(r.Numericals) != expNum {
		return fmt.Errorf("record contains %d numerical features (expected %d)", len(r.Numericals), expNum)
	}
	if len(r.Categoricals) != expCat {
		return fmt.Errorf("record contains %d categorical features (expected %d)", len(r.Categoricals), expCat)
	}
	if len(r.Texts) != expText {
		return fmt.Errorf("record contains %d text features (expected %d)", len(r.Texts), expText)
	}
	return nil
}

// IsMissingNumerical reports whether a numerical value represents a
// missing feature (NaN).
func IsMissingNumerical(v float64) bool {
	return math.IsNaN(v)
}

// IsMissingCategorical reports whether a categorical value represents
// a missing feature (empty string).
func IsMissingCategorical(v string) bool {
	return v == ""
}
