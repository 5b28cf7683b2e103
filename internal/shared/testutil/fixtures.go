package testutil

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"studentpulse/pkg/contracts/domain"
)

// StudentsCSV is a small class list with one duplicated row and a few
// missing cells in both numeric and text columns.
const StudentsCSV = `Name,Gender,Math,Science,Total Marks
Alice,F,78,85,82
Bob,M,35,,38
Chloe,,92,88,91
Dev,M,,64,
Alice,F,78,85,82
Farah,F,55,47,51
`

// StudentsDataset is StudentsCSV as the loader types it
func StudentsDataset() domain.Dataset {
	n := domain.Number
	s := domain.Text
	na := domain.Missing()
	return domain.MustDataset(
		domain.TextColumn("Name", s("Alice"), s("Bob"), s("Chloe"), s("Dev"), s("Alice"), s("Farah")),
		domain.TextColumn("Gender", s("F"), s("M"), na, s("M"), s("F"), s("F")),
		domain.NumericColumn("Math", n(78), n(35), n(92), na, n(78), n(55)),
		domain.NumericColumn("Science", n(85), na, n(88), n(64), n(85), n(47)),
		domain.NumericColumn("Total Marks", n(82), n(38), n(91), na, n(82), n(51)),
	)
}

// Workbook builds an .xlsx file in memory. rows[0] is usually the header;
// nil cells are written as blanks.
func Workbook(t testing.TB, sheet string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" && sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	} else {
		sheet = "Sheet1"
	}

	for i := range rows {
		row := rows[i]
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// PDFDocument builds a minimal PDF with one line of Helvetica text per page
func PDFDocument(pages ...string) []byte {
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)

	escaper := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", escaper.Replace(text))
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
