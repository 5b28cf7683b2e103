package exporter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"studentpulse/internal/config"
	"studentpulse/internal/errors"
	"studentpulse/pkg/contracts/domain"
)

// MIME types of the download formats
const (
	MIMECSV   = "text/csv"
	MIMEExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Exporter turns a dataset into a download
type Exporter struct {
	logger   *slog.Logger
	baseName string
	csv      *CSVWriter
}

// New creates an exporter for the configured file name
func New(cfg config.ExportConfig, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		logger:   logger.With(slog.String("component", "exporter")),
		baseName: cfg.BaseName,
		csv:      NewCSVWriter(cfg.CSVBOM),
	}
}

// FileName returns the suggested download name for a format
func (e *Exporter) FileName(format domain.ExportFormat) string {
	if format == domain.FormatExcel {
		return e.baseName + ".xlsx"
	}
	return e.baseName + ".csv"
}

// Export serializes ds. Only writer failures are returned.
func (e *Exporter) Export(ctx context.Context, ds domain.Dataset, format domain.ExportFormat) (domain.Download, error) {
	var buf bytes.Buffer
	mime, err := e.encode(&buf, ds, format)
	if err != nil {
		return domain.Download{}, err
	}

	dl := domain.Download{FileName: e.FileName(format), MIMEType: mime, Data: buf.Bytes()}
	e.logger.InfoContext(ctx, "Dataset exported",
		slog.String("format", string(format)),
		slog.String("file_name", dl.FileName),
		slog.Int("rows", ds.Rows()),
		slog.Int("bytes", len(dl.Data)))
	return dl, nil
}

// WriteFile serializes ds into dir under the suggested file name, creating
// dir when needed, and returns the path written. A failed write leaves no
// file behind.
func (e *Exporter) WriteFile(ctx context.Context, ds domain.Dataset, format domain.ExportFormat, dir string) (string, error) {
	path := filepath.Join(dir, e.FileName(format))

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := e.encode(file, ds, format); err != nil {
		file.Close()
		os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", errors.NewExportError("failed to write export file", err).WithContext("path", path)
	}

	e.logger.InfoContext(ctx, "Dataset written",
		slog.String("format", string(format)),
		slog.String("path", path),
		slog.Int("rows", ds.Rows()))
	return path, nil
}

// encode writes ds to w and returns its MIME type
func (e *Exporter) encode(w io.Writer, ds domain.Dataset, format domain.ExportFormat) (string, error) {
	var (
		mime string
		err  error
	)
	switch format {
	case domain.FormatCSV:
		mime = MIMECSV
		err = e.csv.Write(w, DatasetOptions(ds))
	case domain.FormatExcel:
		mime = MIMEExcel
		err = WriteWorkbook(w, ds)
	default:
		return "", errors.NewConfigError(fmt.Sprintf("unsupported export format %q", format), nil)
	}
	if err != nil {
		return "", errors.NewExportError("failed to serialize dataset", err).
			WithContext("format", string(format))
	}
	return mime, nil
}
