// Package shared holds helpers used by more than one package of the
// dashboard. Today that is only testutil, which provides a capturing slog
// handler and in-memory student-record fixtures (CSV text, workbooks and
// PDF documents) so package tests never touch the filesystem.
package shared
