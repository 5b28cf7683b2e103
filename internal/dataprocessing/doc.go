// Package dataprocessing holds the table pipeline of the dashboard.
//
// The Loader parses an upload into a domain.Dataset (CSV, first sheet of an
// XLSX workbook) or into plain text (PDF). Column types are detected with
// gota: a column is numeric when every present cell parses as a number.
//
// The Cleaner applies up to four steps, always in this order:
//
//	remove_duplicates -> fill_numeric_na -> fill_categorical_na -> drop_na_rows
//
// Plan exposes that order with each step's enabled flag so callers can show
// it without re-deriving it.
//
// The Summarizer produces the count/mean/std/min/25%/50%/75%/max table for
// numeric columns.
//
// Every stage takes a Dataset and returns a new one; inputs are never
// modified.
package dataprocessing
