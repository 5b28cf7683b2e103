package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"studentpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	bom bool
}

// NewCSVWriter creates a CSV writer. With bom set every output starts
// with a UTF-8 byte order mark.
func NewCSVWriter(bom bool) *CSVWriter {
	return &CSVWriter{bom: bom}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers []string
	Records [][]string
}

// DatasetOptions converts a dataset to header and records. Missing cells
// are empty and numbers use their shortest round-trip form.
func DatasetOptions(ds domain.Dataset) WriteOptions {
	records := make([][]string, ds.Rows())
	for i := range records {
		records[i] = ds.Record(i)
	}
	return WriteOptions{Headers: ds.Names(), Records: records}
}

// Write writes the header and records to w
func (c *CSVWriter) Write(w io.Writer, options WriteOptions) error {
	if c.bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
