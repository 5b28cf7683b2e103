package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	apierrors "studentpulse/internal/errors"
	"studentpulse/internal/middleware"
	"studentpulse/internal/services"
	api "studentpulse/pkg/contracts/api/v1"
	"studentpulse/pkg/contracts/domain"
)

// SessionHandler serves the JSON session API
type SessionHandler struct {
	service      DashboardServiceInterface
	validator    *middleware.RequestValidator
	errorHandler *apierrors.ErrorHandler
	maxBytes     int64
	logger       *slog.Logger
}

// NewSessionHandler creates the session API handler
func NewSessionHandler(service DashboardServiceInterface, validator *middleware.RequestValidator, errorHandler *apierrors.ErrorHandler, maxBytes int64, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		maxBytes:     maxBytes,
		logger:       logger.With(slog.String("handler", "sessions")),
	}
}

// Routes returns the session routes, mounted under /api/sessions
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.SessionCtx)
		r.Post("/analysis", h.Analyze)
		r.Post("/export", h.Export)
		r.Delete("/", h.Delete)
	})

	return r
}

// SessionCtx rejects ids that cannot name a session
func (h *SessionHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := uuid.Parse(chi.URLParam(r, "id")); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "id must be a valid UUID"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	file, header, err := readUpload(w, r, h.maxBytes)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()
	defer file.Close()

	result, err := h.service.Upload(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := api.UploadResponse{Kind: result.Kind, FileName: result.FileName}
	if result.Kind == domain.LoadDocument {
		resp.Text = result.Text
		render.Status(r, http.StatusOK)
		render.JSON(w, r, resp)
		return
	}

	resp.SessionID = result.Session.ID
	resp.Rows = result.Rows
	resp.Columns = result.Columns
	resp.Names = result.Names
	resp.Preview = result.Preview

	h.logger.InfoContext(r.Context(), "session created",
		slog.String("session_id", resp.SessionID),
		slog.String("file_name", resp.FileName),
		slog.Int("rows", resp.Rows))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// Analyze handles POST /api/sessions/{id}/analysis
func (h *SessionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	analysis, err := h.service.Analyze(r.Context(), chi.URLParam(r, "id"), services.AnalysisOptions{
		Cleaning: req.Cleaning,
		Charts:   req.ChartOptions(),
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	render.JSON(w, r, toAnalysisResponse(analysis))
}

// Export handles POST /api/sessions/{id}/export
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	dl, err := h.service.Export(r.Context(), chi.URLParam(r, "id"), req.Cleaning, req.ExportFormat())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	if err := writeDownload(w, dl); err != nil {
		h.logger.WarnContext(r.Context(), "download interrupted", slog.String("error", err.Error()))
	}
}

// Delete handles DELETE /api/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Drop(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toAnalysisResponse(a services.Analysis) api.AnalysisResponse {
	resp := api.AnalysisResponse{
		SessionID:   a.SessionID,
		FileName:    a.FileName,
		Rows:        a.Rows,
		Columns:     a.Columns,
		CleanedRows: a.CleanedRows,
		Notices:     a.Notices,
		Summary:     api.NewSummaryTable(a.Summary),
		Charts:      a.Charts,
		Warnings:    a.Warnings,
	}
	if resp.Notices == nil {
		resp.Notices = []string{}
	}
	if resp.Charts == nil {
		resp.Charts = []domain.ChartImage{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []domain.Warning{}
	}
	return resp
}
