package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoricalHistogramSummarizerCountsAndMissing(t *testing.T) {
	s := NewCategoricalHistogramSummarizer()
	for _, v := range []string{"a", "b", "a", "", "a", "b"} {
		s.PushValue(v)
	}
	assert.Equal(t, uint64(5), s.NumValues)
	assert.Equal(t, uint64(1), s.NumMissing)
	assert.Equal(t, 2, s.NumUniqueValues())
	assert.Equal(t, uint64(3), s.ValueCounts["a"])
	assert.Equal(t, uint64(2), s.ValueCounts["b"])
}

func TestCategoricalHistogramSummarizerZeroValue(t *testing.T) {
	var s CategoricalHistogramSummarizer
	s.PushValue("x")
	assert.Equal(t, uint64(1), s.ValueCounts["x"])
}
