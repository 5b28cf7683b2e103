package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"studentpulse/pkg/contracts/domain"
)

// Cleaning step names, in execution order
const (
	StepRemoveDuplicates  = "remove_duplicates"
	StepFillNumericNA     = "fill_numeric_na"
	StepFillCategoricalNA = "fill_categorical_na"
	StepDropNARows        = "drop_na_rows"
)

// CleaningStep is one entry of a cleaning plan
type CleaningStep struct {
	Name    string
	Enabled bool
	Notice  string
	apply   func(domain.Dataset) domain.Dataset
}

// Apply runs the step regardless of Enabled
func (s CleaningStep) Apply(ds domain.Dataset) domain.Dataset {
	return s.apply(ds)
}

// Cleaner applies the optional cleaning steps
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With(slog.String("component", "cleaner"))}
}

// Plan returns all four steps in their fixed order, each flagged with
// whether opts enables it.
func (c *Cleaner) Plan(opts domain.CleaningOptions) []CleaningStep {
	return []CleaningStep{
		{
			Name:    StepRemoveDuplicates,
			Enabled: opts.RemoveDuplicates,
			Notice:  "Duplicates removed successfully!",
			apply:   RemoveDuplicates,
		},
		{
			Name:    StepFillNumericNA,
			Enabled: opts.FillNumericNA,
			Notice:  "Missing values filled with mean values.",
			apply:   FillNumericNA,
		},
		{
			Name:    StepFillCategoricalNA,
			Enabled: opts.FillCategoricalNA,
			Notice:  "Missing categorical values filled with mode values.",
			apply:   FillCategoricalNA,
		},
		{
			Name:    StepDropNARows,
			Enabled: opts.DropNARows,
			Notice:  "Rows with missing values dropped.",
			apply:   DropNARows,
		},
	}
}

// Clean runs the enabled steps of the plan and returns the cleaned dataset
// with one notice per step that ran. ds is not modified.
func (c *Cleaner) Clean(ctx context.Context, ds domain.Dataset, opts domain.CleaningOptions) (domain.Dataset, []string) {
	out := ds.Clone()
	var notices []string

	for _, step := range c.Plan(opts) {
		if !step.Enabled {
			continue
		}
		before, missingBefore := out.Rows(), out.MissingCount()
		out = step.Apply(out)
		notices = append(notices, step.Notice)

		c.logger.DebugContext(ctx, "Cleaning step applied",
			slog.String("step", step.Name),
			slog.Int("rows_before", before),
			slog.Int("rows_after", out.Rows()),
			slog.Int("missing_before", missingBefore),
			slog.Int("missing_after", out.MissingCount()))
	}

	return out, notices
}

// RemoveDuplicates keeps the first occurrence of every distinct row.
// Missing cells compare equal to each other.
func RemoveDuplicates(ds domain.Dataset) domain.Dataset {
	seen := make(map[string]struct{}, ds.Rows())
	keep := make([]int, 0, ds.Rows())
	cols := ds.Columns()

	for i := 0; i < ds.Rows(); i++ {
		key := rowKey(cols, i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}

	return ds.SelectRows(keep)
}

func rowKey(cols []domain.Column, i int) string {
	var b strings.Builder
	for _, col := range cols {
		v := col.Values[i]
		switch {
		case v.Null:
			b.WriteString("~;")
		case col.Kind == domain.KindNumeric:
			num := v.Num
			if num == 0 {
				num = 0 // folds -0 into 0
			}
			b.WriteString(strconv.FormatFloat(num, 'g', -1, 64))
			b.WriteByte(';')
		default:
			// length prefix keeps separators inside text unambiguous
			b.WriteString(strconv.Itoa(len(v.Str)))
			b.WriteByte(':')
			b.WriteString(v.Str)
		}
	}
	return b.String()
}

// FillNumericNA replaces missing numeric cells with the column mean.
// Columns with no present values are left as they are.
func FillNumericNA(ds domain.Dataset) domain.Dataset {
	return ds.MapColumns(func(col domain.Column) domain.Column {
		if col.Kind != domain.KindNumeric {
			return col
		}
		present := col.Present()
		if len(present) == 0 || len(present) == col.Len() {
			return col
		}
		mean := stat.Mean(present, nil)
		if math.IsNaN(mean) {
			return col
		}
		for i, v := range col.Values {
			if v.Null {
				col.Values[i] = domain.Number(mean)
			}
		}
		return col
	})
}

// FillCategoricalNA replaces missing text cells with the most frequent
// value of the column. Ties go to the value seen first.
func FillCategoricalNA(ds domain.Dataset) domain.Dataset {
	return ds.MapColumns(func(col domain.Column) domain.Column {
		if col.Kind != domain.KindText {
			return col
		}
		mode, ok := Mode(col)
		if !ok {
			return col
		}
		for i, v := range col.Values {
			if v.Null {
				col.Values[i] = domain.Text(mode)
			}
		}
		return col
	})
}

// Mode returns the most frequent present value of a text column, breaking
// ties by first occurrence. ok is false when every cell is missing.
func Mode(col domain.Column) (string, bool) {
	counts := make(map[string]int)
	best := 0
	for _, v := range col.Values {
		if v.Null {
			continue
		}
		counts[v.Str]++
		best = max(best, counts[v.Str])
	}

	for _, v := range col.Values {
		if !v.Null && counts[v.Str] == best {
			return v.Str, true
		}
	}
	return "", false
}

// DropNARows removes every row that still has a missing cell
func DropNARows(ds domain.Dataset) domain.Dataset {
	cols := ds.Columns()
	keep := make([]int, 0, ds.Rows())

rows:
	for i := 0; i < ds.Rows(); i++ {
		for _, col := range cols {
			if col.Values[i].Null {
				continue rows
			}
		}
		keep = append(keep, i)
	}

	return ds.SelectRows(keep)
}
