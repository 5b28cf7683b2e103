package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureHandler(t *testing.T) {
	t.Run("captures records and attributes", func(t *testing.T) {
		logger, h := NewTestLogger(t)
		logger.With(slog.String("component", "loader")).Info("file loaded", slog.Int("rows", 6))
		logger.Error("export failed")

		records := h.Records()
		require.Len(t, records, 2)
		assert.True(t, h.Contains("file loaded"))
		assert.True(t, h.HasAttr("component", "loader"))
		assert.True(t, h.HasAttr("rows", int64(6)))
		assert.Len(t, h.RecordsAt(slog.LevelError), 1)
	})

	t.Run("With does not leak into the parent logger", func(t *testing.T) {
		logger, h := NewTestLogger(t)
		_ = logger.With(slog.String("component", "charts"))
		logger.Info("plain")

		records := h.Records()
		require.Len(t, records, 1)
		assert.NotContains(t, records[0].Attrs, "component")
	})

	t.Run("concurrent logging", func(t *testing.T) {
		logger, h := NewTestLogger(t)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.Info("render", slog.Int("chart", n))
			}(i)
		}
		wg.Wait()
		assert.Len(t, h.Records(), 10)
	})
}

func TestPDFDocumentLayout(t *testing.T) {
	doc := string(PDFDocument("page one", "page (two)"))
	assert.Contains(t, doc, "%PDF-1.4")
	assert.Contains(t, doc, "/Count 2")
	assert.Contains(t, doc, `(page \(two\)) Tj`)
	assert.Contains(t, doc, "%%EOF")
}
