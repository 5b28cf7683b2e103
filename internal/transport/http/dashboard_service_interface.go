package http

import (
	"context"
	"io"

	"studentpulse/internal/services"
	"studentpulse/pkg/contracts/domain"
)

// DashboardServiceInterface defines the operations the handlers need
type DashboardServiceInterface interface {
	Upload(ctx context.Context, name string, size int64, r io.Reader) (services.UploadResult, error)
	Analyze(ctx context.Context, sessionID string, opts services.AnalysisOptions) (services.Analysis, error)
	Export(ctx context.Context, sessionID string, cleaning domain.CleaningOptions, format domain.ExportFormat) (domain.Download, error)
	Drop(ctx context.Context, sessionID string) error
}
