package dataprocessing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentpulse/internal/shared/testutil"
	"studentpulse/pkg/contracts/domain"
)

func TestSummarizer_Students(t *testing.T) {
	s := NewSummarizer(testutil.DiscardLogger())
	summary := s.Summarize(context.Background(), testutil.StudentsDataset())

	assert.Equal(t, []string{"Math", "Science", "Total Marks"}, summary.Columns)
	require.Len(t, summary.Values, len(domain.SummaryRows))

	want := map[domain.StatRow]float64{
		domain.StatCount: 5,
		domain.StatMean:  67.6,
		domain.StatMin:   35,
		domain.StatQ1:    55,
		domain.StatQ2:    78,
		domain.StatQ3:    78,
		domain.StatMax:   92,
	}
	for stat, v := range want {
		got, ok := summary.Value(stat, "Math")
		require.True(t, ok)
		assert.InDelta(t, v, got, 1e-9, string(stat))
	}

	std, _ := summary.Value(domain.StatStd, "Math")
	assert.InDelta(t, math.Sqrt(2033.2/4), std, 1e-9)
}

func TestSummarizer_Describe(t *testing.T) {
	n, na := domain.Number, domain.Missing()
	ds := domain.MustDataset(
		domain.NumericColumn("four", n(4), n(1), n(3), n(2)),
		domain.NumericColumn("one", n(7), na, na, na),
		domain.NumericColumn("none", na, na, na, na),
		domain.TextColumn("label", domain.Text("a"), na, na, na),
	)

	summary := NewSummarizer(nil).Summarize(context.Background(), ds)
	assert.Equal(t, []string{"four", "one", "none"}, summary.Columns)

	tests := []struct {
		column string
		want   []float64
	}{
		{"four", []float64{4, 2.5, math.Sqrt(5.0 / 3.0), 1, 1.75, 2.5, 3.25, 4}},
		{"one", []float64{1, 7, math.NaN(), 7, 7, 7, 7, 7}},
		{"none", []float64{0, math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			for i, stat := range domain.SummaryRows {
				got, ok := summary.Value(stat, tt.column)
				require.True(t, ok)
				if math.IsNaN(tt.want[i]) {
					assert.True(t, math.IsNaN(got), "%s should be NaN, got %v", stat, got)
					continue
				}
				assert.InDelta(t, tt.want[i], got, 1e-9, string(stat))
			}
		})
	}
}

func TestSummary_Table(t *testing.T) {
	n := domain.Number
	ds := domain.MustDataset(domain.NumericColumn("x", n(1), n(2), n(4)))
	table := NewSummarizer(nil).Summarize(context.Background(), ds).Table()

	require.Len(t, table, 8)
	assert.Equal(t, []string{"count", "3"}, table[0])
	assert.Equal(t, []string{"mean", "2.333333"}, table[1])
	assert.Equal(t, []string{"25%", "1.5"}, table[4])
	assert.Equal(t, []string{"max", "4"}, table[7])
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"single value", []float64{5}, 0.75, 5},
		{"exact rank", []float64{1, 2, 3}, 0.5, 2},
		{"interpolated", []float64{10, 20}, 0.25, 12.5},
		{"minimum", []float64{1, 9}, 0, 1},
		{"maximum", []float64{1, 9}, 1, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(tt.sorted, tt.p), 1e-12)
		})
	}

	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}
