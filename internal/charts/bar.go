package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/stat"

	"studentpulse/pkg/contracts/domain"
)

const AverageBarTitle = "Subject-wise Average Marks"

var barColor = drawing.ColorFromHex("87ceeb")

// ColumnMean is the average of one numeric column
type ColumnMean struct {
	Column string
	Mean   float64
}

// ColumnMeans returns the mean of every numeric column that has at least
// one value, in dataset order
func ColumnMeans(ds domain.Dataset) []ColumnMean {
	var means []ColumnMean
	for _, col := range ds.NumericColumns() {
		present := col.Present()
		if len(present) == 0 {
			continue
		}
		means = append(means, ColumnMean{Column: col.Name, Mean: stat.Mean(present, nil)})
	}
	return means
}

func (r *Renderer) averageBar(ds domain.Dataset, w io.Writer) ([]*Warning, error) {
	means := ColumnMeans(ds)
	if len(means) == 0 {
		return nil, &Warning{Chart: domain.ChartAverageBar, Message: "No numeric columns available for the average marks chart."}
	}

	var skipped []*Warning
	lo, hi := 0.0, 0.0
	bars := make([]chart.Value, 0, len(means))
	for _, m := range means {
		if math.IsInf(m.Mean, 0) || math.IsNaN(m.Mean) {
			skipped = append(skipped, &Warning{
				Chart:   domain.ChartAverageBar,
				Message: fmt.Sprintf("Column '%s' has no finite average and was left out of the average marks chart.", m.Column),
			})
			continue
		}
		lo = math.Min(lo, m.Mean)
		hi = math.Max(hi, m.Mean)
		bars = append(bars, chart.Value{
			Label: m.Column,
			Value: m.Mean,
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor.WithAlpha(255)},
		})
	}
	if len(bars) == 0 {
		return skipped, &Warning{Chart: domain.ChartAverageBar, Message: "No finite averages available for the average marks chart."}
	}

	yRange, ok := axisRange(lo, hi)
	if !ok {
		return skipped, &Warning{Chart: domain.ChartAverageBar, Message: "Average marks are too large to plot."}
	}

	// share the plot width between bars and gaps
	slot := (r.width - 120) / len(bars)
	barWidth := max(4, slot*6/10)
	spacing := max(2, slot-barWidth)

	graph := chart.BarChart{
		Title:      AverageBarTitle,
		Width:      r.width,
		Height:     r.height,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Name:  "Average Marks",
			Range: yRange,
		},
		Bars: bars,
	}
	return skipped, graph.Render(chart.PNG, w)
}

// axisRange pads [lo, hi] by 10%. It reports false when the span is not
// finite; go-chart never finishes generating ticks for such a range.
func axisRange(lo, hi float64) (*chart.ContinuousRange, bool) {
	pad := func(v float64) float64 {
		if p := v * 1.1; !math.IsInf(p, 0) {
			return p
		}
		return v
	}
	lo, hi = pad(lo), pad(hi)
	if hi == lo {
		hi = lo + 1
	}
	if math.IsInf(hi-lo, 0) || math.IsNaN(hi-lo) {
		return nil, false
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}, true
}
