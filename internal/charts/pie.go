package charts

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"studentpulse/pkg/contracts/domain"
)

const (
	PassFailTitle = "Pass vs Fail Distribution"

	// TotalMarksColumn is the column the pass/fail split is computed from
	TotalMarksColumn = "Total Marks"
	// StatusColumn is the derived pass/fail column
	StatusColumn = "Status"
	// PassMark is the lowest total that passes
	PassMark = 40.0

	StatusPass = "Pass"
	StatusFail = "Fail"
)

var statusColors = map[string]drawing.Color{
	StatusPass: drawing.ColorFromHex("66bb6a"),
	StatusFail: drawing.ColorFromHex("ef5350"),
}

// WithStatus returns a copy of ds with a Status column holding Pass for
// totals at or above PassMark and Fail otherwise, including missing
// totals. ds itself is not modified.
func WithStatus(ds domain.Dataset) (domain.Dataset, error) {
	total, ok := ds.Column(TotalMarksColumn)
	if !ok {
		return domain.Dataset{}, NewMissingColumnWarning(domain.ChartPassFailPie, TotalMarksColumn, "Pass/Fail")
	}
	if total.Kind != domain.KindNumeric {
		return domain.Dataset{}, &Warning{
			Chart:   domain.ChartPassFailPie,
			Message: fmt.Sprintf("Column '%s' is not numeric; Pass/Fail analysis skipped.", TotalMarksColumn),
		}
	}

	status := make([]domain.Value, total.Len())
	for i, v := range total.Values {
		if !v.Null && v.Num >= PassMark {
			status[i] = domain.Text(StatusPass)
		} else {
			status[i] = domain.Text(StatusFail)
		}
	}
	return ds.WithColumn(domain.TextColumn(StatusColumn, status...))
}

// StatusCount is the number of rows in one pass/fail category
type StatusCount struct {
	Status string
	Count  int
}

// PassFailCounts returns the non-empty categories, largest first. Pass
// comes first on a tie.
func PassFailCounts(ds domain.Dataset) ([]StatusCount, error) {
	withStatus, err := WithStatus(ds)
	if err != nil {
		return nil, err
	}
	status, _ := withStatus.Column(StatusColumn)

	pass, fail := 0, 0
	for _, v := range status.Values {
		if v.Str == StatusPass {
			pass++
		} else {
			fail++
		}
	}

	counts := []StatusCount{{StatusPass, pass}, {StatusFail, fail}}
	if fail > pass {
		counts[0], counts[1] = counts[1], counts[0]
	}
	out := counts[:0]
	for _, c := range counts {
		if c.Count > 0 {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *Renderer) passFailPie(ds domain.Dataset, w io.Writer) error {
	counts, err := PassFailCounts(ds)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		return &Warning{Chart: domain.ChartPassFailPie, Message: "No rows available for Pass/Fail analysis."}
	}

	total := 0
	for _, c := range counts {
		total += c.Count
	}

	values := make([]chart.Value, len(counts))
	for i, c := range counts {
		values[i] = chart.Value{
			Value: float64(c.Count),
			Label: fmt.Sprintf("%s %.1f%%", c.Status, 100*float64(c.Count)/float64(total)),
			Style: chart.Style{FillColor: statusColors[c.Status], FontSize: 12},
		}
	}

	graph := chart.PieChart{
		Title:  PassFailTitle,
		Width:  r.height,
		Height: r.height,
		Values: values,
	}
	return graph.Render(chart.PNG, w)
}
