package charts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentpulse/internal/shared/testutil"
	"studentpulse/pkg/contracts/domain"
)

func totals(values ...domain.Value) domain.Dataset {
	return domain.MustDataset(domain.NumericColumn(TotalMarksColumn, values...))
}

func TestPassFailCounts(t *testing.T) {
	n, na := domain.Number, domain.Missing()
	tests := []struct {
		name string
		ds   domain.Dataset
		want []StatusCount
	}{
		{
			name: "boundary at forty",
			ds:   totals(n(39), n(40), n(41), n(0), n(100)),
			want: []StatusCount{{StatusPass, 3}, {StatusFail, 2}},
		},
		{
			name: "missing totals fail",
			ds:   totals(na, na, n(80)),
			want: []StatusCount{{StatusFail, 2}, {StatusPass, 1}},
		},
		{
			name: "everyone passes",
			ds:   totals(n(50), n(60)),
			want: []StatusCount{{StatusPass, 2}},
		},
		{
			name: "tie lists pass first",
			ds:   totals(n(10), n(90)),
			want: []StatusCount{{StatusPass, 1}, {StatusFail, 1}},
		},
		{
			name: "no rows",
			ds:   totals(),
			want: []StatusCount{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PassFailCounts(tt.ds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPassFailCounts_Warnings(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		ds := domain.MustDataset(domain.NumericColumn("Math", domain.Number(50)))
		_, err := PassFailCounts(ds)

		w, ok := AsWarning(err)
		require.True(t, ok)
		assert.Equal(t, domain.ChartPassFailPie, w.Chart)
		assert.Equal(t, "Column 'Total Marks' not found for Pass/Fail analysis.", w.Message)
	})

	t.Run("text column", func(t *testing.T) {
		ds := domain.MustDataset(domain.TextColumn(TotalMarksColumn, domain.Text("high")))
		_, err := PassFailCounts(ds)

		_, ok := AsWarning(err)
		assert.True(t, ok)
	})
}

func TestWithStatus_DoesNotModifyInput(t *testing.T) {
	ds := testutil.StudentsDataset()
	out, err := WithStatus(ds)
	require.NoError(t, err)

	assert.Equal(t, ds.Width()+1, out.Width())
	_, has := ds.Column(StatusColumn)
	assert.False(t, has)

	status, ok := out.Column(StatusColumn)
	require.True(t, ok)
	got := make([]string, status.Len())
	for i, v := range status.Values {
		got[i] = v.Str
	}
	assert.Equal(t, []string{"Pass", "Fail", "Pass", "Fail", "Pass", "Pass"}, got)
}

func TestPassFailPie(t *testing.T) {
	r := NewRenderer(nil)

	img, err := r.Render(context.Background(), totals(domain.Number(39), domain.Number(41)), domain.ChartPassFailPie)
	require.NoError(t, err)
	assert.Equal(t, PassFailTitle, img.Title)
	decodePNG(t, img.PNG)

	img, err = r.Render(context.Background(), totals(domain.Number(99)), domain.ChartPassFailPie)
	require.NoError(t, err, "a single category still renders")
	decodePNG(t, img.PNG)

	_, err = r.Render(context.Background(), totals(), domain.ChartPassFailPie)
	_, ok := AsWarning(err)
	assert.True(t, ok)
}
