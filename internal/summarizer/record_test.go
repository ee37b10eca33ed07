package summarizer

import (
	"math"
	"testing"

	"github.com/reinferio/saltfish/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func irisSchema() schema.Schema {
	return schema.Schema{Features: []schema.Feature{
		{Name: "sepal_len", Type: schema.NUMERICAL},
		{Name: "species", Type: schema.CATEGORICAL},
	}}
}

func TestRecordSummarizerPushRecordValidatesArity(t *testing.T) {
	rs := NewRecordSummarizer(irisSchema())
	err := rs.PushRecord(schema.Record{Numericals: []float64{1.0}})
	assert.Error(t, err)
}

func TestRecordSummarizerAccumulatesPerFeature(t *testing.T) {
	rs := NewRecordSummarizer(irisSchema())
	require.NoError(t, rs.PushRecord(schema.Record{Numericals: []float64{1.0}, Categoricals: []string{"x"}}))
	require.NoError(t, rs.PushRecord(schema.Record{Numericals: []float64{math.NaN()}, Categoricals: []string{""}}))
	require.NoError(t, rs.PushRecord(schema.Record{Numericals: []float64{2.5}, Categoricals: []string{"y"}}))

	assert.Equal(t, uint64(1), rs.Numerical[0].NumMissing)
	assert.InDelta(t, 1.75, rs.Numerical[0].MeanValue(), 1e-9)
	assert.Equal(t, uint64(1), rs.Categorical[0].NumMissing)
	assert.Equal(t, uint64(1), rs.Categorical[0].ValueCounts["x"])
	assert.Equal(t, uint64(1), rs.Categorical[0].ValueCounts["y"])
}

func TestRecordSummarizerEncodeDecodeRoundTrip(t *testing.T) {
	rs := NewRecordSummarizer(irisSchema())
	require.NoError(t, rs.PushRecord(schema.Record{Numericals: []float64{1.0}, Categoricals: []string{"x"}}))

	encoded, err := rs.Encode()
	require.NoError(t, err)

	decoded, err := DecodeRecordSummarizer(encoded)
	require.NoError(t, err)

	assert.Equal(t, rs.Schema, decoded.Schema)
	assert.Equal(t, rs.Numerical, decoded.Numerical)
	assert.Equal(t, rs.Categorical, decoded.Categorical)
}
