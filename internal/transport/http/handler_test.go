package http

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "studentpulse/internal/errors"
	"studentpulse/internal/services"
	"studentpulse/internal/shared/testutil"
	"studentpulse/pkg/contracts/domain"
)

const sessionID = "0b1e5a52-5b8c-4d7e-9c39-7a1d2f3e4b5c"

// MockDashboardService is a testify mock of the dashboard service
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Upload(ctx context.Context, name string, size int64, r io.Reader) (services.UploadResult, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(name, string(data))
	return args.Get(0).(services.UploadResult), args.Error(1)
}

func (m *MockDashboardService) Analyze(ctx context.Context, id string, opts services.AnalysisOptions) (services.Analysis, error) {
	args := m.Called(id, opts)
	return args.Get(0).(services.Analysis), args.Error(1)
}

func (m *MockDashboardService) Export(ctx context.Context, id string, cleaning domain.CleaningOptions, format domain.ExportFormat) (domain.Download, error) {
	args := m.Called(id, cleaning, format)
	return args.Get(0).(domain.Download), args.Error(1)
}

func (m *MockDashboardService) Drop(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func newErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(testutil.DiscardLogger(), false)
}

// multipartBody builds a form with one file part under field
func multipartBody(t *testing.T, field, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func uploadRequest(t *testing.T, target, field, name, content string) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, field, name, content)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	return req
}

func sampleAnalysis() services.Analysis {
	return services.Analysis{
		SessionID:   sessionID,
		FileName:    "students.csv",
		Rows:        6,
		Columns:     5,
		Names:       []string{"Name", "Gender", "Math", "Science", "Total Marks"},
		Preview:     [][]string{{"Alice", "F", "78", "85", "82"}},
		CleanedRows: 5,
		Notices:     []string{"Duplicates removed successfully!"},
		Summary: domain.Summary{
			Columns: []string{"Math"},
			Values:  [][]float64{{5}, {67.6}, {22.5}, {35}, {55}, {78}, {78}, {92}},
		},
		Charts: []domain.ChartImage{
			{Kind: domain.ChartAverageBar, Title: "Subject-wise Average Marks", PNG: []byte("\x89PNG")},
		},
		Warnings: []domain.Warning{
			{Source: "pass_fail", Message: "Column 'Total Marks' not found for Pass/Fail analysis."},
		},
	}
}
