package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "studentpulse/internal/errors"
	"studentpulse/internal/middleware"
	"studentpulse/internal/services"
	"studentpulse/internal/shared/testutil"
	api "studentpulse/pkg/contracts/api/v1"
	"studentpulse/pkg/contracts/domain"
)

func newSessionRouter(svc *MockDashboardService) http.Handler {
	logger := testutil.DiscardLogger()
	h := NewSessionHandler(svc, middleware.NewRequestValidator(logger), newErrorHandler(), 1<<20, logger)
	r := chi.NewRouter()
	r.Mount("/api/sessions", h.Routes())
	return r
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestSessionHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		fileName   string
		setupMock  func(*MockDashboardService)
		wantStatus int
		check      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:     "table opens a session",
			field:    "file",
			fileName: "students.csv",
			setupMock: func(m *MockDashboardService) {
				m.On("Upload", "students.csv", testutil.StudentsCSV).Return(services.UploadResult{
					Kind:     domain.LoadTable,
					FileName: "students.csv",
					Session:  &services.Session{ID: sessionID},
					Rows:     6,
					Columns:  5,
					Names:    []string{"Name", "Gender", "Math", "Science", "Total Marks"},
					Preview:  [][]string{{"Alice", "F", "78", "85", "82"}},
				}, nil)
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp api.UploadResponse
				decodeJSON(t, rec, &resp)
				assert.Equal(t, sessionID, resp.SessionID)
				assert.Equal(t, domain.LoadTable, resp.Kind)
				assert.Equal(t, 6, resp.Rows)
				assert.Equal(t, 5, resp.Columns)
				assert.Len(t, resp.Preview, 1)
				assert.Empty(t, resp.Text)
			},
		},
		{
			name:     "document returns text only",
			field:    "file",
			fileName: "report.pdf",
			setupMock: func(m *MockDashboardService) {
				m.On("Upload", "report.pdf", testutil.StudentsCSV).Return(services.UploadResult{
					Kind:     domain.LoadDocument,
					FileName: "report.pdf",
					Text:     "Term report",
				}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp api.UploadResponse
				decodeJSON(t, rec, &resp)
				assert.Equal(t, domain.LoadDocument, resp.Kind)
				assert.Equal(t, "Term report", resp.Text)
				assert.Empty(t, resp.SessionID)
			},
		},
		{
			name:       "missing file part",
			field:      "attachment",
			fileName:   "students.csv",
			setupMock:  func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), `"VALIDATION_FAILED"`)
			},
		},
		{
			name:     "unparseable file",
			field:    "file",
			fileName: "students.csv",
			setupMock: func(m *MockDashboardService) {
				m.On("Upload", "students.csv", testutil.StudentsCSV).
					Return(services.UploadResult{}, apierrors.NewParsingError("CSV file could not be parsed", nil))
			},
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var body map[string]interface{}
				decodeJSON(t, rec, &body)
				assert.Equal(t, apierrors.TypeParsing, body["type"])
				assert.Equal(t, "CSV file could not be parsed", body["detail"])
			},
		},
		{
			name:     "unsupported extension",
			field:    "file",
			fileName: "students.txt",
			setupMock: func(m *MockDashboardService) {
				m.On("Upload", "students.txt", testutil.StudentsCSV).
					Return(services.UploadResult{}, apierrors.NewConfigError("unsupported file type", nil))
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), apierrors.TypeConfiguration)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			newSessionRouter(svc).ServeHTTP(rec, uploadRequest(t, "/api/sessions", tt.field, tt.fileName, testutil.StudentsCSV))

			assert.Equal(t, tt.wantStatus, rec.Code)
			tt.check(t, rec)
			svc.AssertExpectations(t)
		})
	}
}

func TestSessionHandler_Analyze(t *testing.T) {
	t.Run("runs the requested options", func(t *testing.T) {
		svc := new(MockDashboardService)
		want := services.AnalysisOptions{
			Cleaning: domain.CleaningOptions{RemoveDuplicates: true, DropNARows: true},
			Charts:   domain.ChartOptions{AverageBar: true, PassFailPie: true},
		}
		svc.On("Analyze", sessionID, want).Return(sampleAnalysis(), nil)

		body := `{"cleaning":{"remove_duplicates":true,"drop_na_rows":true},"charts":["pass_fail","bar"]}`
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/analysis", strings.NewReader(body))
		rec := httptest.NewRecorder()
		newSessionRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.AnalysisResponse
		decodeJSON(t, rec, &resp)
		assert.Equal(t, 5, resp.CleanedRows)
		assert.Equal(t, []string{"Duplicates removed successfully!"}, resp.Notices)
		assert.Equal(t, []string{"statistic", "Math"}, resp.Summary.Columns)
		assert.Equal(t, []string{"mean", "67.6"}, resp.Summary.Rows[1])
		require.Len(t, resp.Charts, 1)
		assert.Equal(t, []byte("\x89PNG"), resp.Charts[0].PNG)
		require.Len(t, resp.Warnings, 1)
		svc.AssertExpectations(t)
	})

	t.Run("empty body", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Analyze", sessionID, services.AnalysisOptions{}).Return(services.Analysis{SessionID: sessionID}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/analysis", nil)
		rec := httptest.NewRecorder()
		newSessionRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"notices":[]`)
		assert.Contains(t, rec.Body.String(), `"charts":[]`)
	})

	tests := []struct {
		name       string
		id         string
		body       string
		mockErr    error
		wantStatus int
		wantType   string
	}{
		{"expired session", sessionID, `{}`, services.ErrSessionNotFound, http.StatusNotFound, apierrors.TypeSessionNotFound},
		{"unknown chart", sessionID, `{"charts":["radar"]}`, nil, http.StatusBadRequest, apierrors.TypeValidation},
		{"repeated chart", sessionID, `{"charts":["bar","bar"]}`, nil, http.StatusBadRequest, apierrors.TypeValidation},
		{"unknown field", sessionID, `{"clean":true}`, nil, http.StatusBadRequest, apierrors.TypeValidation},
		{"malformed id", "not-a-uuid", `{}`, nil, http.StatusBadRequest, apierrors.TypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			if tt.mockErr != nil {
				svc.On("Analyze", tt.id, mock.Anything).Return(services.Analysis{}, tt.mockErr)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+tt.id+"/analysis", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			newSessionRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			decodeJSON(t, rec, &body)
			assert.Equal(t, tt.wantType, body["type"])
			svc.AssertExpectations(t)
		})
	}
}

func TestSessionHandler_Export(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Export", sessionID, domain.CleaningOptions{FillNumericNA: true}, domain.FormatExcel).Return(domain.Download{
		FileName: "Processed_Student_Data.xlsx",
		MIMEType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:     []byte("PK"),
	}, nil)

	body := `{"cleaning":{"fill_numeric_na":true},"format":"xlsx"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/export", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=Processed_Student_Data.xlsx", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Equal(t, "PK", rec.Body.String())
	svc.AssertExpectations(t)
}

func TestSessionHandler_ExportRejectsFormat(t *testing.T) {
	svc := new(MockDashboardService)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/export", strings.NewReader(`{"format":"pdf"}`))
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "format must be one of: csv, excel, xlsx")
	svc.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionHandler_Delete(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"dropped", nil, http.StatusNoContent},
		{"already gone", services.ErrSessionNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			svc.On("Drop", sessionID).Return(tt.err)

			rec := httptest.NewRecorder()
			newSessionRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sessionID, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
