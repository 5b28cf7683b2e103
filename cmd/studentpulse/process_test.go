package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentpulse/internal/config"
	"studentpulse/internal/shared/testutil"
	"studentpulse/pkg/contracts/domain"
)

func writeInput(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func runForTest(t *testing.T, opts processOptions) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := runProcess(context.Background(), config.Default(), opts, &out, testutil.DiscardLogger())
	return out.String(), err
}

func TestRunProcess_Table(t *testing.T) {
	outDir := t.TempDir()
	output, err := runForTest(t, processOptions{
		Path:     writeInput(t, "students.csv", []byte(testutil.StudentsCSV)),
		Cleaning: domain.CleaningOptions{RemoveDuplicates: true},
		Charts:   []string{"bar", "pass_fail"},
		Format:   "csv",
		OutDir:   outDir,
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Preview of Student Data")
	assert.Contains(t, output, "Total Students: 6")
	assert.Contains(t, output, "Total Columns: 5")
	assert.Contains(t, output, "Duplicates removed successfully!")
	assert.Contains(t, output, "Statistical Summary")
	assert.Contains(t, output, "Data ready for download!")

	data, err := os.ReadFile(filepath.Join(outDir, "Processed_Student_Data.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Name,Gender,Math,Science,Total Marks")

	for _, name := range []string{"bar.png", "pass_fail.png"} {
		png, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.Equal(t, []byte("\x89PNG"), png[:4], name)
	}
	assert.NoFileExists(t, filepath.Join(outDir, "heatmap.png"))
}

func TestRunProcess_Document(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	output, err := runForTest(t, processOptions{
		Path:   writeInput(t, "report.pdf", testutil.PDFDocument("Term report")),
		Format: "csv",
		OutDir: outDir,
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Extracted PDF Text")
	assert.Contains(t, output, "Term report")
	assert.NoDirExists(t, outDir)
}

func TestRunProcess_MissingTotalMarks(t *testing.T) {
	output, err := runForTest(t, processOptions{
		Path:   writeInput(t, "marks.csv", []byte("Name,Math\nA,40\nB,60\n")),
		Charts: []string{"pass_fail"},
		Format: "excel",
		OutDir: t.TempDir(),
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Warning: Column 'Total Marks' not found")
	assert.Contains(t, output, "Processed_Student_Data.xlsx")
}

func TestRunProcess_Errors(t *testing.T) {
	csvPath := writeInput(t, "students.csv", []byte(testutil.StudentsCSV))

	tests := []struct {
		name string
		opts processOptions
	}{
		{name: "unknown chart", opts: processOptions{Path: csvPath, Charts: []string{"radar"}, Format: "csv", OutDir: t.TempDir()}},
		{name: "unknown format", opts: processOptions{Path: csvPath, Format: "json", OutDir: t.TempDir()}},
		{name: "missing file", opts: processOptions{Path: filepath.Join(t.TempDir(), "none.csv"), Format: "csv", OutDir: t.TempDir()}},
		{name: "unsupported extension", opts: processOptions{Path: writeInput(t, "notes.txt", []byte("x")), Format: "csv", OutDir: t.TempDir()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runForTest(t, tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestRootCmd_Version(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Student Pulse v")
}
