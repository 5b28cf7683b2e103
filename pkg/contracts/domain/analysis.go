package domain

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// SourceFormat is the format of an uploaded file, taken from its extension
type SourceFormat string

const (
	SourceCSV  SourceFormat = "csv"
	SourceXLSX SourceFormat = "xlsx"
	SourcePDF  SourceFormat = "pdf"
)

// SupportedExtensions lists the accepted upload extensions
var SupportedExtensions = []string{".csv", ".xlsx", ".pdf"}

// SourceFormatOf maps a file name to its format using the trailing
// extension, case-insensitively.
func SourceFormatOf(name string) (SourceFormat, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return SourceCSV, true
	case ".xlsx":
		return SourceXLSX, true
	case ".pdf":
		return SourcePDF, true
	}
	return "", false
}

// CleaningOptions selects the cleaning steps to apply. Steps always run in
// the order the fields are declared.
type CleaningOptions struct {
	RemoveDuplicates  bool `json:"remove_duplicates"`
	FillNumericNA     bool `json:"fill_numeric_na"`
	FillCategoricalNA bool `json:"fill_categorical_na"`
	DropNARows        bool `json:"drop_na_rows"`
}

// ChartKind names one of the dashboard charts
type ChartKind string

const (
	ChartAverageBar         ChartKind = "bar"
	ChartCorrelationHeatmap ChartKind = "heatmap"
	ChartPassFailPie        ChartKind = "pass_fail"
)

// AllCharts lists every chart in display order
var AllCharts = []ChartKind{ChartAverageBar, ChartCorrelationHeatmap, ChartPassFailPie}

// ParseChartKind maps a chart name to its kind
func ParseChartKind(s string) (ChartKind, error) {
	switch ChartKind(strings.ToLower(strings.TrimSpace(s))) {
	case ChartAverageBar:
		return ChartAverageBar, nil
	case ChartCorrelationHeatmap:
		return ChartCorrelationHeatmap, nil
	case ChartPassFailPie:
		return ChartPassFailPie, nil
	}
	return "", fmt.Errorf("unknown chart %q", s)
}

// ChartOptions selects the charts to render
type ChartOptions struct {
	AverageBar         bool `json:"average_bar"`
	CorrelationHeatmap bool `json:"correlation_heatmap"`
	PassFailPie        bool `json:"pass_fail_pie"`
}

// Kinds returns the selected charts in display order
func (o ChartOptions) Kinds() []ChartKind {
	var kinds []ChartKind
	if o.AverageBar {
		kinds = append(kinds, ChartAverageBar)
	}
	if o.CorrelationHeatmap {
		kinds = append(kinds, ChartCorrelationHeatmap)
	}
	if o.PassFailPie {
		kinds = append(kinds, ChartPassFailPie)
	}
	return kinds
}

// Enable turns on the given chart
func (o *ChartOptions) Enable(kind ChartKind) {
	switch kind {
	case ChartAverageBar:
		o.AverageBar = true
	case ChartCorrelationHeatmap:
		o.CorrelationHeatmap = true
	case ChartPassFailPie:
		o.PassFailPie = true
	}
}

// ChartImage is a rendered chart
type ChartImage struct {
	Kind  ChartKind `json:"kind"`
	Title string    `json:"title"`
	PNG   []byte    `json:"png"`
}

// Warning is a non-fatal condition reported next to the results
type Warning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// ExportFormat is a download file format
type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "excel"
)

// ParseExportFormat accepts "csv", "excel" and "xlsx" in any case
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Download is an in-memory file ready to be offered to the user
type Download struct {
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// StatRow names one row of a descriptive statistics table
type StatRow string

const (
	StatCount StatRow = "count"
	StatMean  StatRow = "mean"
	StatStd   StatRow = "std"
	StatMin   StatRow = "min"
	StatQ1    StatRow = "25%"
	StatQ2    StatRow = "50%"
	StatQ3    StatRow = "75%"
	StatMax   StatRow = "max"
)

// SummaryRows is the fixed row order of a Summary
var SummaryRows = []StatRow{StatCount, StatMean, StatStd, StatMin, StatQ1, StatQ2, StatQ3, StatMax}

// Summary holds descriptive statistics, one column per numeric field.
// Values[i][j] is statistic SummaryRows[i] of Columns[j]; undefined
// statistics are NaN.
type Summary struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"-"`
}

// Value returns the statistic for a column
func (s Summary) Value(stat StatRow, column string) (float64, bool) {
	row := -1
	for i, r := range SummaryRows {
		if r == stat {
			row = i
		}
	}
	for j, c := range s.Columns {
		if c == column && row >= 0 {
			return s.Values[row][j], true
		}
	}
	return 0, false
}

// Table renders the summary as rows of strings, each starting with the
// statistic name
func (s Summary) Table() [][]string {
	rows := make([][]string, len(SummaryRows))
	for i, stat := range SummaryRows {
		row := make([]string, 0, len(s.Columns)+1)
		row = append(row, string(stat))
		for j := range s.Columns {
			row = append(row, FormatStatistic(s.Values[i][j]))
		}
		rows[i] = row
	}
	return rows
}

// FormatStatistic renders a statistic with at most six decimals and no
// trailing zeros. NaN renders as "NaN".
func FormatStatistic(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	out := strconv.FormatFloat(v, 'f', 6, 64)
	out = strings.TrimRight(out, "0")
	out = strings.TrimSuffix(out, ".")
	if out == "-0" {
		out = "0"
	}
	return out
}

// LoadKind tells whether an upload produced a table or plain text
type LoadKind string

const (
	LoadTable    LoadKind = "table"
	LoadDocument LoadKind = "document"
)

// LoadResult is the Loader output. Exactly one of Dataset (for tables) or
// Text (for documents) is meaningful.
type LoadResult struct {
	Kind     LoadKind
	FileName string
	Dataset  Dataset
	Text     string
}
