package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDuplicateFeatureName(t *testing.T) {
	s := Schema{Features: []Feature{
		{Name: "x", Type: NUMERICAL},
		{Name: "x", Type: NUMERICAL},
	}}
	assert.ErrorIs(t, Validate(s), ErrDuplicateFeatureName)
}

func TestValidateInvalidFeatureType(t *testing.T) {
	s := Schema{Features: []Feature{
		{Name: "x", Type: INVALID},
	}}
	assert.ErrorIs(t, Validate(s), ErrInvalidFeatureType)
}

func TestValidateOK(t *testing.T) {
	s := Schema{Features: []Feature{
		{Name: "a", Type: NUMERICAL},
		{Name: "b", Type: CATEGORICAL},
		{Name: "c", Type: TEXT},
	}}
	assert.NoError(t, Validate(s))
}

func TestValidateRecordArity(t *testing.T) {
	s := Schema{Features: []Feature{
		{Name: "a", Type: NUMERICAL},
		{Name: "b", Type: CATEGORICAL},
	}}

	t.Run("matching arity ok", func(t *testing.T) {
		r := Record{Numericals: []float64{1.0}, Categoricals: []string{"x"}}
		assert.NoError(t, ValidateRecord(s, r))
	})

	t.Run("wrong numerical count", func(t *testing.T) {
		r := Record{Numericals: []float64{1.0, 2.0}, Categoricals: []string{"x"}}
		assert.Error(t, ValidateRecord(s, r))
	})

	t.Run("wrong categorical count", func(t *testing.T) {
		r := Record{Numericals: []float64{1.0}, Categoricals: []string{}}
		assert.Error(t, ValidateRecord(s, r))
	})

	t.Run("nan numerical is a valid missing value", func(t *testing.T) {
		r := Record{Numericals: []float64{math.NaN()}, Categoricals: []string{""}}
		assert.NoError(t, ValidateRecord(s, r))
		assert.True(t, IsMissingNumerical(r.Numericals[0]))
		assert.True(t, IsMissingCategorical(r.Categoricals[0]))
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := Schema{Features: []Feature{
		{Name: "a", Type: NUMERICAL},
		{Name: "b", Type: TEXT},
	}}
	b, err := Encode(s)
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestEqualByteForByte(t *testing.T) {
	s1 := Schema{Features: []Feature{{Name: "v", Type: NUMERICAL}}}
	s2 := Schema{Features: []Feature{{Name: "v", Type: NUMERICAL}}}
	b1, err := Encode(s1)
	require.NoError(t, err)
	b2, err := Encode(s2)
	require.NoError(t, err)
	assert.True(t, Equal(b1, b2))

	s3 := Schema{Features: []Feature{{Name: "v", Type: CATEGORICAL}}}
	b3, err := Encode(s3)
	require.NoError(t, err)
	assert.False(t, Equal(b1, b3))
}
