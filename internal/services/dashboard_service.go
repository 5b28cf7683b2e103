package services

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"studentpulse/internal/charts"
	"studentpulse/internal/config"
	"studentpulse/internal/dataprocessing"
	"studentpulse/internal/errors"
	"studentpulse/internal/exporter"
	"studentpulse/internal/infrastructure"
	"studentpulse/internal/validation"
	"studentpulse/pkg/contracts/domain"
)

// Pipeline stage names used for timing
const (
	StageLoad      = "load"
	StageClean     = "clean"
	StageSummarize = "summarize"
	StageCharts    = "charts"
	StageExport    = "export"
)

// Pipeline groups the processing stages
type Pipeline struct {
	Validator  *validation.UploadValidator
	Loader     *dataprocessing.Loader
	Cleaner    *dataprocessing.Cleaner
	Summarizer *dataprocessing.Summarizer
	Charts     *charts.Renderer
	Exporter   *exporter.Exporter
}

// NewPipeline builds every stage from configuration
func NewPipeline(cfg *config.Config, logger *slog.Logger) Pipeline {
	return Pipeline{
		Validator:  validation.NewUploadValidator(logger, cfg.Upload.MaxBytes),
		Loader:     dataprocessing.NewLoader(logger),
		Cleaner:    dataprocessing.NewCleaner(logger),
		Summarizer: dataprocessing.NewSummarizer(logger),
		Charts:     charts.NewRenderer(logger),
		Exporter:   exporter.New(cfg.Export, logger),
	}
}

// AnalysisOptions selects the cleaning steps and charts of one analysis
type AnalysisOptions struct {
	Cleaning domain.CleaningOptions
	Charts   domain.ChartOptions
}

// UploadResult describes an accepted upload. Documents carry Text and no
// session; tables carry a session and a preview of the raw rows.
type UploadResult struct {
	Kind     domain.LoadKind
	FileName string
	Session  *Session
	Text     string
	Rows     int
	Columns  int
	Names    []string
	Preview  [][]string
}

// Analysis is everything the dashboard shows for one set of options
type Analysis struct {
	SessionID string
	FileName  string

	// shape and preview of the dataset as uploaded
	Rows    int
	Columns int
	Names   []string
	Preview [][]string

	CleanedRows int
	Notices     []string
	Summary     domain.Summary
	Charts      []domain.ChartImage
	Warnings    []domain.Warning
}

// DashboardService runs uploads through the pipeline and keeps the loaded
// datasets in sessions
type DashboardService struct {
	pipeline    Pipeline
	sessions    *SessionStore
	metrics     *infrastructure.DashboardMetrics
	previewRows int
	logger      *slog.Logger
}

// NewDashboardService creates the dashboard service
func NewDashboardService(pipeline Pipeline, sessions *SessionStore, metrics *infrastructure.DashboardMetrics, previewRows int, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		pipeline:    pipeline,
		sessions:    sessions,
		metrics:     metrics,
		previewRows: previewRows,
		logger:      logger.With(slog.String("service", "dashboard")),
	}
}

// Load validates and parses an upload without storing it. size is the
// declared length; the reader is also cut off past the configured limit.
func (s *DashboardService) Load(ctx context.Context, name string, size int64, r io.Reader) (domain.LoadResult, error) {
	start := time.Now()

	result, err := s.load(ctx, name, size, r)
	if err != nil {
		s.metrics.RecordLoadFailure(ctx, errorType(err))
		s.logger.WarnContext(ctx, "Upload rejected",
			slog.String("file_name", name),
			slog.String("error", err.Error()))
		return domain.LoadResult{}, err
	}

	s.metrics.RecordStage(ctx, StageLoad, time.Since(start))
	return result, nil
}

func (s *DashboardService) load(ctx context.Context, name string, size int64, r io.Reader) (domain.LoadResult, error) {
	format, err := s.pipeline.Validator.ValidateUpload(name, size)
	if err != nil {
		return domain.LoadResult{}, err
	}

	limit := s.pipeline.Validator.MaxBytes()
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.LoadResult{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return domain.LoadResult{}, errors.PayloadTooLarge(limit)
	}
	if len(data) == 0 {
		return domain.LoadResult{}, errors.NewParsingError(ErrEmptyUpload.Error(), ErrEmptyUpload)
	}

	result, err := s.pipeline.Loader.Load(ctx, name, bytes.NewReader(data))
	if err != nil {
		return domain.LoadResult{}, err
	}
	s.metrics.RecordUpload(ctx, string(format))
	return result, nil
}

// Upload loads a file and, for tables, opens a session holding the dataset
func (s *DashboardService) Upload(ctx context.Context, name string, size int64, r io.Reader) (UploadResult, error) {
	loaded, err := s.Load(ctx, name, size, r)
	if err != nil {
		return UploadResult{}, err
	}

	if loaded.Kind == domain.LoadDocument {
		s.logger.InfoContext(ctx, "Document uploaded",
			slog.String("file_name", name),
			slog.Int("text_length", len(loaded.Text)))
		return UploadResult{Kind: domain.LoadDocument, FileName: loaded.FileName, Text: loaded.Text}, nil
	}

	format, _ := domain.SourceFormatOf(name)
	session := s.sessions.Create(ctx, loaded.FileName, format, loaded.Dataset)
	return UploadResult{
		Kind:     domain.LoadTable,
		FileName: loaded.FileName,
		Session:  session,
		Rows:     loaded.Dataset.Rows(),
		Columns:  loaded.Dataset.Width(),
		Names:    loaded.Dataset.Names(),
		Preview:  loaded.Dataset.Head(s.previewRows),
	}, nil
}

// Session returns a live session
func (s *DashboardService) Session(id string) (*Session, error) {
	return s.sessions.Get(id)
}

// Run cleans ds, summarizes the result and renders the selected charts. It
// returns the analysis and the cleaned dataset.
func (s *DashboardService) Run(ctx context.Context, ds domain.Dataset, opts AnalysisOptions) (Analysis, domain.Dataset, error) {
	analysis := Analysis{
		Rows:    ds.Rows(),
		Columns: ds.Width(),
		Names:   ds.Names(),
		Preview: ds.Head(s.previewRows),
	}

	cleaned := s.clean(ctx, ds, opts.Cleaning, &analysis)

	start := time.Now()
	analysis.Summary = s.pipeline.Summarizer.Summarize(ctx, cleaned)
	s.metrics.RecordStage(ctx, StageSummarize, time.Since(start))

	start = time.Now()
	images, warnings, err := s.pipeline.Charts.RenderAll(ctx, cleaned, opts.Charts)
	if err != nil {
		return Analysis{}, domain.Dataset{}, fmt.Errorf("failed to render charts: %w", err)
	}
	s.metrics.RecordStage(ctx, StageCharts, time.Since(start))

	for _, img := range images {
		s.metrics.RecordChart(ctx, string(img.Kind))
	}
	for _, w := range warnings {
		s.metrics.RecordWarning(ctx, w.Source)
	}
	analysis.Charts = images
	analysis.Warnings = warnings

	return analysis, cleaned, nil
}

func (s *DashboardService) clean(ctx context.Context, ds domain.Dataset, opts domain.CleaningOptions, analysis *Analysis) domain.Dataset {
	start := time.Now()
	cleaned, notices := s.pipeline.Cleaner.Clean(ctx, ds, opts)
	s.metrics.RecordStage(ctx, StageClean, time.Since(start))

	if analysis != nil {
		analysis.Notices = notices
		analysis.CleanedRows = cleaned.Rows()
	}
	return cleaned
}

// Analyze runs the pipeline on a session's dataset
func (s *DashboardService) Analyze(ctx context.Context, sessionID string, opts AnalysisOptions) (Analysis, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return Analysis{}, err
	}

	analysis, _, err := s.Run(ctx, session.Dataset, opts)
	if err != nil {
		return Analysis{}, err
	}
	analysis.SessionID = session.ID
	analysis.FileName = session.FileName

	s.logger.InfoContext(ctx, "Analysis completed",
		slog.String("session_id", session.ID),
		slog.Int("rows", analysis.Rows),
		slog.Int("cleaned_rows", analysis.CleanedRows),
		slog.Int("charts", len(analysis.Charts)),
		slog.Int("warnings", len(analysis.Warnings)))
	return analysis, nil
}

// Export cleans a session's dataset with the given options and serializes it
func (s *DashboardService) Export(ctx context.Context, sessionID string, cleaning domain.CleaningOptions, format domain.ExportFormat) (domain.Download, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return domain.Download{}, err
	}
	return s.ExportDataset(ctx, s.clean(ctx, session.Dataset, cleaning, nil), format)
}

// ExportDataset serializes an already cleaned dataset
func (s *DashboardService) ExportDataset(ctx context.Context, ds domain.Dataset, format domain.ExportFormat) (domain.Download, error) {
	start := time.Now()
	dl, err := s.pipeline.Exporter.Export(ctx, ds, format)
	if err != nil {
		return domain.Download{}, err
	}
	s.metrics.RecordStage(ctx, StageExport, time.Since(start))
	s.metrics.RecordExport(ctx, string(format))
	return dl, nil
}

// SaveDataset writes an already cleaned dataset into dir and returns the
// file path
func (s *DashboardService) SaveDataset(ctx context.Context, ds domain.Dataset, format domain.ExportFormat, dir string) (string, error) {
	start := time.Now()
	path, err := s.pipeline.Exporter.WriteFile(ctx, ds, format, dir)
	if err != nil {
		return "", err
	}
	s.metrics.RecordStage(ctx, StageExport, time.Since(start))
	s.metrics.RecordExport(ctx, string(format))
	return path, nil
}

// Drop removes a session
func (s *DashboardService) Drop(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Session dropped", slog.String("session_id", sessionID))
	return nil
}

// errorType labels an error for the load failure metric
func errorType(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return string(appErr.Type)
	}
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.ErrorCode
	}
	return "UNKNOWN"
}
