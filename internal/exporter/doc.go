// Package exporter serializes a dataset into a downloadable file.
//
// CSVWriter writes header plus records to any io.Writer, optionally
// prefixed with a UTF-8 BOM so spreadsheet applications detect the
// encoding. WriteWorkbook produces a single-sheet .xlsx where numeric
// columns become numeric cells. Exporter ties both to the configured
// download file name:
//
//	exp := exporter.New(cfg.Export, logger)
//	dl, err := exp.Export(ctx, ds, domain.FormatExcel)
//	// dl.FileName == "Processed_Student_Data.xlsx"
package exporter
