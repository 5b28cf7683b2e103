package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "studentpulse/internal/errors"
	"studentpulse/internal/services"
	"studentpulse/pkg/contracts/domain"
)

// DashboardHandler serves the server-rendered dashboard
type DashboardHandler struct {
	service      DashboardServiceInterface
	pages        *template.Template
	errorHandler *apierrors.ErrorHandler
	maxBytes     int64
	logger       *slog.Logger
}

// NewDashboardHandler creates the dashboard handler. maxBytes bounds
// uploaded files.
func NewDashboardHandler(service DashboardServiceInterface, errorHandler *apierrors.ErrorHandler, maxBytes int64, logger *slog.Logger) (*DashboardHandler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		pages:        pages,
		errorHandler: errorHandler,
		maxBytes:     maxBytes,
		logger:       logger.With(slog.String("handler", "dashboard")),
	}, nil
}

// Register adds the dashboard pages to r
func (h *DashboardHandler) Register(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/upload", h.Upload)
	r.Get("/sessions/{id}", h.Dashboard)
	r.Get("/sessions/{id}/export", h.Export)
}

type uploadPage struct {
	Title  string
	Error  string
	Accept string
}

type documentPage struct {
	Title    string
	FileName string
	Text     string
}

type dashboardPage struct {
	Title         string
	Analysis      services.Analysis
	Query         dashboardQuery
	SummaryHeader []string
	SummaryRows   [][]string
	ExportURL     string
}

// Index handles GET /
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "upload.html", http.StatusOK, uploadPage{Title: PageTitle, Accept: acceptedExtensions()})
}

// Upload handles POST /upload. Tables redirect to their dashboard;
// documents show their text.
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := readUpload(w, r, h.maxBytes)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()
	defer file.Close()

	result, err := h.service.Upload(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if result.Kind == domain.LoadDocument {
		h.render(w, r, "document.html", http.StatusOK, documentPage{
			Title:    PageTitle,
			FileName: result.FileName,
			Text:     result.Text,
		})
		return
	}

	http.Redirect(w, r, "/sessions/"+url.PathEscape(result.Session.ID), http.StatusSeeOther)
}

// Dashboard handles GET /sessions/{id}
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	query := parseDashboardQuery(r.URL.Query())

	analysis, err := h.service.Analyze(r.Context(), id, services.AnalysisOptions{
		Cleaning: query.Cleaning,
		Charts:   query.Charts,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	page := dashboardPage{
		Title:     PageTitle,
		Analysis:  analysis,
		Query:     query,
		ExportURL: "/sessions/" + url.PathEscape(id) + "/export?" + query.Encode(),
	}
	if len(analysis.Summary.Columns) > 0 {
		page.SummaryHeader = analysis.Summary.Columns
		page.SummaryRows = analysis.Summary.Table()
	}

	h.render(w, r, "dashboard.html", http.StatusOK, page)
}

// Export handles GET /sessions/{id}/export
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	query := parseDashboardQuery(r.URL.Query())

	dl, err := h.service.Export(r.Context(), id, query.Cleaning, query.Format)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if err := writeDownload(w, dl); err != nil {
		h.logger.WarnContext(r.Context(), "download interrupted",
			slog.String("session_id", id),
			slog.String("error", err.Error()))
	}
}

// renderError shows the upload page with the problem's detail and status
func (h *DashboardHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	err = mapServiceError(err)
	problem := h.errorHandler.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "dashboard request failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", problem.Status),
		slog.String("error", err.Error()))

	h.render(w, r, "upload.html", problem.Status, uploadPage{
		Title:  PageTitle,
		Error:  problem.Detail,
		Accept: acceptedExtensions(),
	})
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, name string, status int, data interface{}) {
	if err := renderPage(w, h.pages, name, status, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page",
			slog.String("template", name),
			slog.String("error", err.Error()))
	}
}

// dashboardQuery holds the dashboard options carried in the query string
type dashboardQuery struct {
	Cleaning domain.CleaningOptions
	Charts   domain.ChartOptions
	Format   domain.ExportFormat
}

var (
	cleaningFlags = []string{"remove_duplicates", "fill_numeric", "fill_categorical", "drop_na"}
	chartFlags    = []string{"bar_chart", "heatmap", "pass_fail"}
)

// parseDashboardQuery reads the option flags. An unknown format falls
// back to csv.
func parseDashboardQuery(q url.Values) dashboardQuery {
	format, err := domain.ParseExportFormat(q.Get("format"))
	if err != nil {
		format = domain.FormatCSV
	}
	return dashboardQuery{
		Cleaning: domain.CleaningOptions{
			RemoveDuplicates:  flag(q, "remove_duplicates"),
			FillNumericNA:     flag(q, "fill_numeric"),
			FillCategoricalNA: flag(q, "fill_categorical"),
			DropNARows:        flag(q, "drop_na"),
		},
		Charts: domain.ChartOptions{
			AverageBar:         flag(q, "bar_chart"),
			CorrelationHeatmap: flag(q, "heatmap"),
			PassFailPie:        flag(q, "pass_fail"),
		},
		Format: format,
	}
}

// Encode writes the options back as query flags
func (q dashboardQuery) Encode() string {
	set := []bool{
		q.Cleaning.RemoveDuplicates, q.Cleaning.FillNumericNA,
		q.Cleaning.FillCategoricalNA, q.Cleaning.DropNARows,
	}
	values := url.Values{}
	for i, name := range cleaningFlags {
		if set[i] {
			values.Set(name, "on")
		}
	}
	charts := []bool{q.Charts.AverageBar, q.Charts.CorrelationHeatmap, q.Charts.PassFailPie}
	for i, name := range chartFlags {
		if charts[i] {
			values.Set(name, "on")
		}
	}
	values.Set("format", string(q.Format))
	return values.Encode()
}

// flag treats on, true, 1 and yes as set
func flag(q url.Values, name string) bool {
	switch strings.ToLower(strings.TrimSpace(q.Get(name))) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
