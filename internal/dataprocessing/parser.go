package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"studentpulse/internal/errors"
	"studentpulse/pkg/contracts/domain"
)

// MissingMarkers are the cell values read as missing, compared after
// trimming surrounding spaces.
var MissingMarkers = []string{
	"", "NA", "N/A", "n/a", "NaN", "nan", "-nan", "-NaN", "NULL", "null", "None",
	"<NA>", "<nil>", "#N/A", "#N/A N/A", "#NA", "1.#IND", "-1.#IND", "1.#QNAN", "-1.#QNAN",
}

var missingSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(MissingMarkers))
	for _, v := range MissingMarkers {
		m[v] = struct{}{}
	}
	return m
}()

// IsMissing reports whether a raw cell is a missing marker
func IsMissing(cell string) bool {
	_, ok := missingSet[strings.TrimSpace(cell)]
	return ok
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader turns uploaded bytes into a dataset or, for documents, plain text
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "loader"))}
}

// Load reads r completely and parses it according to the extension of name.
// An unsupported extension is a configuration error returned before r is
// read; malformed content is a parsing error.
func (l *Loader) Load(ctx context.Context, name string, r io.Reader) (domain.LoadResult, error) {
	format, ok := domain.SourceFormatOf(name)
	if !ok {
		return domain.LoadResult{}, errors.NewConfigError(
			fmt.Sprintf("unsupported file type for %q", name), nil).WithContext("file", name)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return domain.LoadResult{}, errors.NewParsingError("failed to read upload", err)
	}

	result := domain.LoadResult{Kind: domain.LoadTable, FileName: name}
	switch format {
	case domain.SourceCSV:
		result.Dataset, err = ParseCSV(data)
	case domain.SourceXLSX:
		result.Dataset, err = ParseXLSX(data)
	case domain.SourcePDF:
		result.Kind = domain.LoadDocument
		result.Text, err = ExtractPDFText(data)
	}
	if err != nil {
		l.logger.WarnContext(ctx, "Failed to parse upload",
			slog.String("file", name),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return domain.LoadResult{}, err
	}

	if result.Kind == domain.LoadDocument {
		l.logger.InfoContext(ctx, "Extracted document text",
			slog.String("file", name),
			slog.Int("characters", utf8.RuneCountInString(result.Text)))
	} else {
		l.logger.InfoContext(ctx, "Loaded dataset",
			slog.String("file", name),
			slog.String("format", string(format)),
			slog.Int("rows", result.Dataset.Rows()),
			slog.Int("columns", result.Dataset.Width()))
	}
	return result, nil
}

// ParseCSV parses delimited text with a header row
func ParseCSV(data []byte) (domain.Dataset, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return domain.Dataset{}, errors.NewParsingError("CSV file is not valid UTF-8", nil)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return domain.Dataset{}, errors.NewParsingError("malformed CSV", err)
	}
	if len(records) == 0 {
		return domain.Dataset{}, errors.NewParsingError("CSV file has no header row", nil)
	}

	return buildDataset(records[0], records[1:])
}

// ParseXLSX parses the first sheet of a workbook with a header row. Every
// row is padded to the widest one; blank header cells are named by
// position like CSV headers. Cells are read raw, so date-formatted cells
// load as Excel serial numbers.
func ParseXLSX(data []byte) (domain.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return domain.Dataset{}, errors.NewParsingError("unreadable workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.Dataset{}, errors.NewParsingError("workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.Dataset{}, errors.NewParsingError(
			fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}
	if len(rows) == 0 {
		return domain.Dataset{}, errors.NewParsingError(
			fmt.Sprintf("sheet %q is empty", sheets[0]), nil)
	}

	// GetRows drops trailing empty cells, so a blank header cell at the end
	// of the header row only shows up as a wider data row
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	header := make([]string, width)
	copy(header, rows[0])

	body := make([][]string, len(rows)-1)
	for i, row := range rows[1:] {
		padded := make([]string, width)
		copy(padded, row)
		body[i] = padded
	}

	return buildDataset(header, body)
}

// ExtractPDFText returns the text of every page joined by a single space
func ExtractPDFText(data []byte) (text string, err error) {
	// The PDF reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewParsingError(fmt.Sprintf("malformed PDF: %v", r), nil)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewParsingError("unreadable PDF", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", errors.NewParsingError(fmt.Sprintf("failed to extract text from page %d", i), err)
		}
		pages = append(pages, content)
	}

	return strings.Join(pages, " "), nil
}

// buildDataset names and types the columns. Every body row must already
// have exactly len(header) cells.
func buildDataset(header []string, body [][]string) (domain.Dataset, error) {
	names, err := normalizeHeader(header)
	if err != nil {
		return domain.Dataset{}, err
	}

	if len(body) == 0 {
		cols := make([]domain.Column, len(names))
		for j, name := range names {
			cols[j] = domain.TextColumn(name)
		}
		return domain.NewDataset(cols...)
	}

	// gota detects types on trimmed cells with every marker mapped to NaN
	records := make([][]string, 0, len(body)+1)
	records = append(records, names)
	for _, row := range body {
		trimmed := make([]string, len(row))
		for j, cell := range row {
			trimmed[j] = strings.TrimSpace(cell)
		}
		records = append(records, trimmed)
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(MissingMarkers),
	)
	if df.Err != nil {
		return domain.Dataset{}, errors.NewParsingError("failed to detect column types", df.Err)
	}

	cols := make([]domain.Column, len(names))
	for j, name := range names {
		s := df.Col(name)
		if s.Err != nil {
			return domain.Dataset{}, errors.NewParsingError(fmt.Sprintf("column %q", name), s.Err)
		}
		cols[j] = toColumn(name, s, body, j)
	}

	ds, err := domain.NewDataset(cols...)
	if err != nil {
		return domain.Dataset{}, errors.NewParsingError("inconsistent table", err)
	}
	return ds, nil
}

// toColumn converts a typed series to a column. Text cells keep their
// original spacing.
func toColumn(name string, s series.Series, body [][]string, j int) domain.Column {
	values := make([]domain.Value, len(body))
	nan := s.IsNaN()

	allMissing := true
	for i := range body {
		if !IsMissing(body[i][j]) {
			allMissing = false
			break
		}
	}

	if allMissing || s.Type() == series.Int || s.Type() == series.Float {
		floats := s.Float()
		for i := range values {
			if allMissing || nan[i] {
				values[i] = domain.Missing()
			} else {
				values[i] = domain.Number(floats[i])
			}
		}
		return domain.NumericColumn(name, values...)
	}

	for i, row := range body {
		if IsMissing(row[j]) {
			values[i] = domain.Missing()
		} else {
			values[i] = domain.Text(row[j])
		}
	}
	return domain.TextColumn(name, values...)
}

// normalizeHeader names blank headers "Unnamed: <index>" and rejects
// duplicates
func normalizeHeader(header []string) ([]string, error) {
	if len(header) == 0 {
		return nil, errors.NewParsingError("header row is empty", nil)
	}

	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := h
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if first, dup := seen[name]; dup {
			return nil, errors.NewParsingError(
				fmt.Sprintf("duplicate column name %q in columns %d and %d", name, first+1, i+1), nil).
				WithContext("column", name)
		}
		seen[name] = i
		names[i] = name
	}
	return names, nil
}
