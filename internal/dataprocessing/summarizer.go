package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"studentpulse/pkg/contracts/domain"
)

// Summarizer computes descriptive statistics of numeric columns
type Summarizer struct {
	logger *slog.Logger
}

// NewSummarizer creates a summarizer
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger.With(slog.String("component", "summarizer"))}
}

// Summarize returns count, mean, std, min, quartiles and max for every
// numeric column in dataset order. Missing cells are ignored; undefined
// statistics are NaN.
func (s *Summarizer) Summarize(ctx context.Context, ds domain.Dataset) domain.Summary {
	numeric := ds.NumericColumns()
	summary := domain.Summary{
		Columns: make([]string, len(numeric)),
		Values:  make([][]float64, len(domain.SummaryRows)),
	}
	for i := range summary.Values {
		summary.Values[i] = make([]float64, len(numeric))
	}

	for j, col := range numeric {
		summary.Columns[j] = col.Name
		for i, v := range describe(col.Present()) {
			summary.Values[i][j] = v
		}
	}

	s.logger.DebugContext(ctx, "Summary computed",
		slog.Int("numeric_columns", len(numeric)),
		slog.Int("rows", ds.Rows()))
	return summary
}

// describe returns the statistics in domain.SummaryRows order
func describe(values []float64) []float64 {
	nan := math.NaN()
	n := len(values)
	if n == 0 {
		return []float64{0, nan, nan, nan, nan, nan, nan, nan}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	std := nan
	if n > 1 {
		std = stat.StdDev(sorted, nil)
	}

	return []float64{
		float64(n),
		stat.Mean(sorted, nil),
		std,
		floats.Min(sorted),
		Quantile(sorted, 0.25),
		Quantile(sorted, 0.50),
		Quantile(sorted, 0.75),
		floats.Max(sorted),
	}
}

// Quantile returns the p-quantile of sorted values using linear
// interpolation between closest ranks, h = (n-1)p. It returns NaN for an
// empty slice.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	hi := math.Ceil(h)
	if lo == hi {
		return sorted[int(lo)]
	}
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}
