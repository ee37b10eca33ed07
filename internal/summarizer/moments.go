package summarizer

import "math"

// MomentsSummarizer maintains streaming mean/variance for one numerical
// feature via Welford's recurrence, a direct translation of
// original_source/src/treadmill/moments_summarizer.hpp.
type MomentsSummarizer struct {
	Mean       float64
	M2         float64
	NumValues  float64
	NumMissing uint64
}

// PushValue folds one observation into the running moments. NaN counts
// as missing (spec.md §4.9 step 3).
func (s *MomentsSummarizer) PushValue(v float64) {
	if math.IsNaN(v) {
		s.NumMissing++
		return
	}
	s.NumValues++
	delta := v - s.Mean
	s.Mean += delta / s.NumValues
	s.M2 += delta * (v - s.Mean)
}

// MeanValue returns the running mean, or NaN if no values were pushed.
func (s *MomentsSummarizer) MeanValue() float64 {
	if s.NumValues == 0 {
		return math.NaN()
	}
	return s.Mean
}

// Variance returns the running sample variance, or NaN if fewer than
// two values were pushed.
func (s *MomentsSummarizer) Variance() float64 {
	if s.NumValues == 0 {
		return math.NaN()
	}
	return s.M2 / (s.NumValues - 1.0)
}
