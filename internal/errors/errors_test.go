package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := ErrValidation("format", "must be one of csv excel")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)
	assert.Equal(t, "Request validation failed", err.Error())
	assert.Equal(t, ValidationError{Field: "format", Message: "must be one of csv excel"}, err.Details)
}

func TestPayloadTooLarge(t *testing.T) {
	err := PayloadTooLarge(1024)

	assert.Equal(t, http.StatusRequestEntityTooLarge, err.StatusCode)
	assert.Equal(t, "Uploaded file exceeds 1024 bytes", err.Message)
	assert.Equal(t, map[string]int64{"max_bytes": 1024}, err.Details)
}

func TestInvalidRequestWithError(t *testing.T) {
	err := InvalidRequestWithError(errors.New("unexpected EOF"))
	assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
	assert.Equal(t, "unexpected EOF", err.Details)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, ErrSessionNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "SESSION_NOT_FOUND", resp.Error.ErrorCode)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusUnprocessableEntity, TypeParsing, "File Could Not Be Parsed", "bad row", "/upload").
		WithExtension("trace_id", "abc123")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeParsing, body["type"])
	assert.Equal(t, float64(422), body["status"])
	assert.Equal(t, "bad row", body["detail"])
	assert.Equal(t, "/upload", body["instance"])
	assert.Equal(t, "abc123", body["trace_id"])
	assert.NotContains(t, body, "Extensions")
}
