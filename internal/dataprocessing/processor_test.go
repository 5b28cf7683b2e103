package dataprocessing

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentpulse/internal/shared/testutil"
	"studentpulse/pkg/contracts/domain"
)

func column(t *testing.T, ds domain.Dataset, name string) domain.Column {
	t.Helper()
	col, ok := ds.Column(name)
	require.True(t, ok, "column %q", name)
	return col
}

func texts(col domain.Column) []string {
	out := make([]string, col.Len())
	for i, v := range col.Values {
		out[i] = v.Format(col.Kind)
	}
	return out
}

func TestCleaner_Plan(t *testing.T) {
	c := NewCleaner(testutil.DiscardLogger())
	plan := c.Plan(domain.CleaningOptions{FillNumericNA: true, DropNARows: true})

	var names []string
	var enabled []bool
	for _, step := range plan {
		names = append(names, step.Name)
		enabled = append(enabled, step.Enabled)
	}
	assert.Equal(t, []string{StepRemoveDuplicates, StepFillNumericNA, StepFillCategoricalNA, StepDropNARows}, names)
	assert.Equal(t, []bool{false, true, false, true}, enabled)
}

func TestRemoveDuplicates(t *testing.T) {
	ds := testutil.StudentsDataset()
	out := RemoveDuplicates(ds)

	assert.Equal(t, 5, out.Rows())
	assert.Equal(t, []string{"Alice", "Bob", "Chloe", "Dev", "Farah"}, texts(column(t, out, "Name")))

	seen := make(map[string]bool)
	for i := 0; i < out.Rows(); i++ {
		key := strings.Join(out.Record(i), "\x1f")
		assert.False(t, seen[key], "row %d repeated", i)
		seen[key] = true
	}
	assert.Equal(t, 6, ds.Rows(), "input must not change")
}

func TestRemoveDuplicates_MissingAndSignedZero(t *testing.T) {
	n, s, na := domain.Number, domain.Text, domain.Missing()
	ds := domain.MustDataset(
		domain.NumericColumn("score", na, na, n(0), n(math.Copysign(0, -1)), n(1)),
		domain.TextColumn("note", s("x"), s("x"), na, na, s("")),
	)

	out := RemoveDuplicates(ds)
	assert.Equal(t, 3, out.Rows())
}

func TestRemoveDuplicates_TextIsNotConfusedWithSeparators(t *testing.T) {
	s := domain.Text
	ds := domain.MustDataset(
		domain.TextColumn("a", s("x;"), s("x")),
		domain.TextColumn("b", s("y"), s(";y")),
	)
	assert.Equal(t, 2, RemoveDuplicates(ds).Rows())
}

func TestFillNumericNA(t *testing.T) {
	ds := testutil.StudentsDataset()
	out := FillNumericNA(ds)

	for _, col := range out.NumericColumns() {
		assert.Zero(t, col.MissingCount(), col.Name)
	}

	// Dev's Math is the mean of the five present marks
	assert.InDelta(t, 67.6, column(t, out, "Math").Values[3].Num, 1e-9)
	assert.InDelta(t, 73.8, column(t, out, "Science").Values[1].Num, 1e-9)
	assert.InDelta(t, 68.8, column(t, out, "Total Marks").Values[3].Num, 1e-9)

	// present values and text columns are untouched
	assert.Equal(t, 78.0, column(t, out, "Math").Values[0].Num)
	assert.Equal(t, 1, column(t, out, "Gender").MissingCount())
}

func TestFillNumericNA_AllMissingColumnStaysMissing(t *testing.T) {
	na := domain.Missing()
	ds := domain.MustDataset(domain.NumericColumn("empty", na, na))
	out := FillNumericNA(ds)
	assert.Equal(t, 2, column(t, out, "empty").MissingCount())
}

func TestFillCategoricalNA(t *testing.T) {
	out := FillCategoricalNA(testutil.StudentsDataset())

	gender := column(t, out, "Gender")
	assert.Zero(t, gender.MissingCount())
	assert.Equal(t, "F", gender.Values[2].Str)
	assert.Equal(t, 1, column(t, out, "Math").MissingCount())
}

func TestMode(t *testing.T) {
	s, na := domain.Text, domain.Missing()
	tests := []struct {
		name   string
		values []domain.Value
		want   string
		ok     bool
	}{
		{"clear winner", []domain.Value{s("a"), s("b"), s("b")}, "b", true},
		{"tie goes to first seen", []domain.Value{s("b"), s("a"), s("a"), s("b"), na}, "b", true},
		{"missing ignored", []domain.Value{na, na, s("z")}, "z", true},
		{"all missing", []domain.Value{na, na}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, ok := Mode(domain.TextColumn("c", tt.values...))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, mode)
		})
	}
}

func TestDropNARows(t *testing.T) {
	out := DropNARows(testutil.StudentsDataset())
	assert.Equal(t, []string{"Alice", "Alice", "Farah"}, texts(column(t, out, "Name")))
	assert.Zero(t, out.MissingCount())
}

func TestFillCategoricalThenDrop(t *testing.T) {
	c := NewCleaner(testutil.DiscardLogger())
	out, notices := c.Clean(context.Background(), testutil.StudentsDataset(), domain.CleaningOptions{
		FillCategoricalNA: true,
		DropNARows:        true,
	})

	assert.Equal(t, []string{"Alice", "Chloe", "Alice", "Farah"}, texts(column(t, out, "Name")))
	assert.Zero(t, column(t, out, "Gender").MissingCount())
	assert.Equal(t, []string{
		"Missing categorical values filled with mode values.",
		"Rows with missing values dropped.",
	}, notices)
}

func TestCleaner_CleanAllSteps(t *testing.T) {
	c := NewCleaner(testutil.DiscardLogger())
	in := testutil.StudentsDataset()

	out, notices := c.Clean(context.Background(), in, domain.CleaningOptions{
		RemoveDuplicates:  true,
		FillNumericNA:     true,
		FillCategoricalNA: true,
		DropNARows:        true,
	})

	require.Len(t, notices, 4)
	assert.Equal(t, "Duplicates removed successfully!", notices[0])
	assert.Equal(t, 5, out.Rows())
	assert.Zero(t, out.MissingCount())

	// means are taken after duplicate removal
	assert.InDelta(t, 65.0, column(t, out, "Math").Values[3].Num, 1e-9)
	// F and M tie after duplicate removal; F is seen first
	assert.Equal(t, "F", column(t, out, "Gender").Values[2].Str)

	assert.Equal(t, 4, in.MissingCount(), "input must not change")
	assert.Equal(t, 6, in.Rows())
}

func TestCleaner_CleanNothingEnabled(t *testing.T) {
	c := NewCleaner(testutil.DiscardLogger())
	in := testutil.StudentsDataset()
	out, notices := c.Clean(context.Background(), in, domain.CleaningOptions{})

	assert.Empty(t, notices)
	assert.Equal(t, in, out)
}
