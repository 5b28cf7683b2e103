package api

import (
	"studentpulse/pkg/contracts/domain"
)

// UploadResponse describes an accepted upload. Tables open a session and
// carry a preview of the raw rows; documents carry only their text.
type UploadResponse struct {
	Kind      domain.LoadKind `json:"kind"`
	FileName  string          `json:"file_name"`
	SessionID string          `json:"session_id,omitempty"`
	Rows      int             `json:"rows,omitempty"`
	Columns   int             `json:"columns,omitempty"`
	Names     []string        `json:"names,omitempty"`
	Preview   [][]string      `json:"preview,omitempty"`
	Text      string          `json:"text,omitempty"`
}

// SummaryTable is a statistics table with values already formatted.
// Undefined statistics read "NaN".
type SummaryTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewSummaryTable formats a summary for the wire
func NewSummaryTable(s domain.Summary) SummaryTable {
	columns := make([]string, 0, len(s.Columns)+1)
	columns = append(columns, "statistic")
	columns = append(columns, s.Columns...)
	return SummaryTable{Columns: columns, Rows: s.Table()}
}

// AnalysisResponse is the result of POST /api/sessions/{id}/analysis.
// Chart images are base64 encoded PNGs.
type AnalysisResponse struct {
	SessionID   string              `json:"session_id"`
	FileName    string              `json:"file_name"`
	Rows        int                 `json:"rows"`
	Columns     int                 `json:"columns"`
	CleanedRows int                 `json:"cleaned_rows"`
	Notices     []string            `json:"notices"`
	Summary     SummaryTable        `json:"summary"`
	Charts      []domain.ChartImage `json:"charts"`
	Warnings    []domain.Warning    `json:"warnings"`
}
