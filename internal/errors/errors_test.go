package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Render(t *testing.T) {
	tests := []struct {
		name       string
		apiError   *APIError
		wantStatus int
	}{
		{
			name:       "session not found",
			apiError:   ErrSessionNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "no files uploaded",
			apiError:   ErrNoFilesUploaded,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "benchmark missing",
			apiError:   ErrBenchmarkMissing,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			require.NoError(t, render.Render(w, r, tt.apiError))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body APIError
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.apiError.ErrorCode, body.ErrorCode)
		})
	}
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("format", "must be one of csv xlsx")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, ValidationError{Field: "format", Message: "must be one of csv xlsx"}, err.Details)
}

func TestInvalidRequestWithError(t *testing.T) {
	err := InvalidRequestWithError(errors.New("multipart: NextPart: EOF"))

	assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
	assert.Equal(t, "multipart: NextPart: EOF", err.Details)
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "format", Message: "invalid"},
		{Field: "bom", Message: "invalid"},
	})

	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusUnprocessableEntity, TypeParse, "File Could Not Be Parsed", "bad", "/x").
		WithExtension("file", "a.csv").
		WithExtension("type", "ignored")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeParse, body["type"])
	assert.Equal(t, "a.csv", body["file"])
	assert.Equal(t, float64(http.StatusUnprocessableEntity), body["status"])
}
