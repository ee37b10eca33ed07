package summarizer

// CategoricalHistogramSummarizer maintains a value->count histogram for
// one categorical feature, a direct translation of
// original_source/src/treadmill/categorical_histogram_summarizer.hpp.
type CategoricalHistogramSummarizer struct {
	NumValues   uint64
	NumMissing  uint64
	ValueCounts map[string]uint64
}

// NewCategoricalHistogramSummarizer constructs an empty summarizer.
func NewCategoricalHistogramSummarizer() *CategoricalHistogramSummarizer {
	return &CategoricalHistogramSummarizer{ValueCounts: map[string]uint64{}}
}

// PushValue folds one observation into the histogram. An empty string
// counts as missing (spec.md §4.9 step 3).
func (s *CategoricalHistogramSummarizer) PushValue(v string) {
	if v == "" {
		s.NumMissing++
		return
	}
	if s.ValueCounts == nil {
		s.ValueCounts = map[string]uint64{}
	}
	s.NumValues++
	s.ValueCounts[v]++
}

// NumUniqueValues returns the number of distinct non-missing values
// observed.
func (s *CategoricalHistogramSummarizer) NumUniqueValues() int {
	return len(s.ValueCounts)
}
