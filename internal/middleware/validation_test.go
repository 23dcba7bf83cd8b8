package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "mediamerge/internal/errors"
)

type downloadParams struct {
	Format string `query:"format" validate:"omitempty,oneof=csv xlsx"`
	BOM    string `query:"bom" validate:"omitempty,boolean"`
}

type uploadParams struct {
	Name string `form:"name" validate:"required,filename,sheetext"`
}

type fakeSessions map[string]bool

func (f fakeSessions) Exists(id string) bool { return f[id] }

func TestValidateStruct(t *testing.T) {
	v := NewValidator(discardLogger())

	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantMsg   string
	}{
		{"valid download", downloadParams{Format: "xlsx", BOM: "true"}, "", ""},
		{"empty download", downloadParams{}, "", ""},
		{"bad format", downloadParams{Format: "pdf"}, "format", "format must be one of: csv, xlsx"},
		{"bad bom", downloadParams{BOM: "maybe"}, "bom", "bom must be true or false"},
		{"valid upload", uploadParams{Name: "google.csv"}, "", ""},
		{"missing name", uploadParams{}, "name", "name is required"},
		{"traversal", uploadParams{Name: "../etc.csv"}, "name", "name must be a valid filename"},
		{"wrong kind", uploadParams{Name: "report.pdf"}, "name", "name must be an .xlsx, .xlsm or .csv file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.input)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			require.Len(t, details.Errors, 1)
			assert.Equal(t, tt.wantField, details.Errors[0].Field)
			assert.Equal(t, tt.wantMsg, details.Errors[0].Message)
		})
	}
}

func TestValidateVar(t *testing.T) {
	v := NewValidator(discardLogger())

	assert.NoError(t, v.ValidateVar("sessionID", "0b7e3c52-1c8e-4a8f-9a51-6f0f0c2d1e77", "uuid4"))

	err := v.ValidateVar("sessionID", "nope", "uuid4")
	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierrors.ValidationError{Field: "sessionID", Message: "sessionID must be a valid UUID"}, apiErr.Details)
}

func TestRequireSession(t *testing.T) {
	const live = "0b7e3c52-1c8e-4a8f-9a51-6f0f0c2d1e77"
	v := NewValidator(discardLogger())
	errorHandler := apierrors.NewErrorHandler(discardLogger(), false)

	r := chi.NewRouter()
	r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
		r.Use(v.RequireSession(fakeSessions{live: true}, errorHandler))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	})

	tests := []struct {
		name          string
		id            string
		wantCode      int
		wantErrorCode string
	}{
		{"live session", live, http.StatusNoContent, ""},
		{"malformed id", "not-a-uuid", http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown session", "9d4c2b8e-3f1a-4c6d-8e2b-1a2b3c4d5e6f", http.StatusNotFound, "SESSION_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+tt.id+"/", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErrorCode != "" {
				assert.Contains(t, rec.Body.String(), tt.wantErrorCode)
			}
		})
	}
}

func TestContentTypeValidator(t *testing.T) {
	errorHandler := apierrors.NewErrorHandler(discardLogger(), false)
	handler := ContentTypeValidator(errorHandler, "multipart/form-data")(okHandler())

	tests := []struct {
		name        string
		method      string
		contentType string
		wantCode    int
	}{
		{"multipart", http.MethodPost, "multipart/form-data; boundary=xyz", http.StatusOK},
		{"uppercase multipart", http.MethodPut, "Multipart/Form-Data; boundary=xyz", http.StatusOK},
		{"json rejected", http.MethodPost, "application/json", http.StatusUnsupportedMediaType},
		{"missing", http.MethodPost, "", http.StatusBadRequest},
		{"malformed", http.MethodPost, "multipart/form-data; =", http.StatusUnsupportedMediaType},
		{"get skipped", http.MethodGet, "", http.StatusOK},
		{"delete skipped", http.MethodDelete, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/upload", strings.NewReader("x"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
