// Package api contains the JSON contracts of the Student Pulse API.
// Version v1 represents the current stable API version.
package api

import (
	"studentpulse/pkg/contracts/domain"
)

// AnalyzeRequest selects the cleaning steps and charts for one analysis.
// An empty body runs no cleaning and renders no charts.
type AnalyzeRequest struct {
	Cleaning domain.CleaningOptions `json:"cleaning"`
	Charts   []string               `json:"charts,omitempty" validate:"omitempty,unique,dive,chart"`
}

// ChartOptions converts the chart names into options. Names are expected
// to have passed validation; unknown names are ignored.
func (r AnalyzeRequest) ChartOptions() domain.ChartOptions {
	var opts domain.ChartOptions
	for _, name := range r.Charts {
		if kind, err := domain.ParseChartKind(name); err == nil {
			opts.Enable(kind)
		}
	}
	return opts
}

// ExportRequest selects the cleaning steps applied before a download and
// its format. The format defaults to csv.
type ExportRequest struct {
	Cleaning domain.CleaningOptions `json:"cleaning"`
	Format   string                 `json:"format,omitempty" validate:"omitempty,oneof=csv excel xlsx"`
}

// ExportFormat returns the requested format
func (r ExportRequest) ExportFormat() domain.ExportFormat {
	format, err := domain.ParseExportFormat(r.Format)
	if err != nil {
		return domain.FormatCSV
	}
	return format
}
