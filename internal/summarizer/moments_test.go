package summarizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMomentsSummarizerNoData(t *testing.T) {
	var s MomentsSummarizer
	assert.True(t, math.IsNaN(s.MeanValue()))
	assert.True(t, math.IsNaN(s.Variance()))
	assert.Equal(t, uint64(0), s.NumMissing)
}

func TestMomentsSummarizerSingleValue(t *testing.T) {
	var s MomentsSummarizer
	s.PushValue(3.0)
	assert.Equal(t, 3.0, s.MeanValue())
	assert.True(t, math.IsNaN(s.Variance()))
}

func TestMomentsSummarizerKnownMeanAndVariance(t *testing.T) {
	var s MomentsSummarizer
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.PushValue(v)
	}
	assert.InDelta(t, 5.0, s.MeanValue(), 1e-9)
	assert.InDelta(t, 32.0/7.0, s.Variance(), 1e-9)
}

func TestMomentsSummarizerCountsMissing(t *testing.T) {
	var s MomentsSummarizer
	s.PushValue(1.0)
	s.PushValue(math.NaN())
	s.PushValue(2.0)
	s.PushValue(math.NaN())
	assert.Equal(t, uint64(2), s.NumMissing)
	assert.Equal(t, 1.5, s.MeanValue())
}
