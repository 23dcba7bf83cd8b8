package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "mediamerge/internal/errors"
	"mediamerge/internal/exporter"
	mw "mediamerge/internal/middleware"
	"mediamerge/internal/services"
	"mediamerge/pkg/contracts/domain"
)

// Multipart field names
const (
	fieldBenchmark = "file"
	fieldTables    = "files"
)

const multipartMemory = 32 << 20

// MergeService is the application surface the session routes call
type MergeService interface {
	CreateSession(ctx context.Context) services.SessionInfo
	DeleteSession(ctx context.Context, id string) error
	LoadBenchmark(ctx context.Context, id string, upload domain.Upload) (*services.BenchmarkInfo, error)
	Benchmark(ctx context.Context, id string) (*domain.BenchmarkTable, error)
	ClearBenchmark(ctx context.Context, id string) error
	ProcessBatch(ctx context.Context, id string, uploads []domain.Upload) (*services.BatchReport, error)
	LastBatch(ctx context.Context, id string) (*services.BatchReport, error)
	Dataset(ctx context.Context, id string) (*domain.MergedDataset, error)
	Export(ctx context.Context, ds *domain.MergedDataset, req services.ExportRequest, w io.Writer) error
}

// UploadValidator checks uploaded file names
type UploadValidator interface {
	ValidateUploadNames(names []string) error
}

// EventServer upgrades a request into a progress subscription
type EventServer interface {
	ServeSession(w http.ResponseWriter, r *http.Request, sessionID string)
}

// datasetQuery holds the download parameters
type datasetQuery struct {
	Format string `query:"format" validate:"omitempty,oneof=csv xlsx"`
	BOM    string `query:"bom" validate:"omitempty,boolean"`
}

// SessionHandler serves the session, benchmark, batch and dataset routes
type SessionHandler struct {
	service      MergeService
	sessions     mw.SessionFinder
	uploads      UploadValidator
	validator    *mw.Validator
	events       EventServer
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewSessionHandler creates the session routes handler
func NewSessionHandler(service MergeService, sessions mw.SessionFinder, uploads UploadValidator, validator *mw.Validator, events EventServer, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		service:      service,
		sessions:     sessions,
		uploads:      uploads,
		validator:    validator,
		events:       events,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "session")),
	}
}

// Routes returns the router mounted at /api/sessions
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	multipartOnly := mw.ContentTypeValidator(h.errorHandler, "multipart/form-data")

	r.Post("/", h.CreateSession)
	r.Route("/{"+mw.SessionParam+"}", func(r chi.Router) {
		r.Use(h.validator.RequireSession(h.sessions, h.errorHandler))

		r.Delete("/", h.DeleteSession)

		r.Get("/benchmark", h.GetBenchmark)
		r.With(multipartOnly).Put("/benchmark", h.LoadBenchmark)
		r.Delete("/benchmark", h.ClearBenchmark)

		r.With(multipartOnly).Post("/batches", h.ProcessBatch)
		r.Get("/batches/latest", h.LastBatch)

		r.Get("/dataset", h.DownloadDataset)
		r.Get("/events", h.Events)
	})
	return r
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, mw.SessionParam)
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	info := h.service.CreateSession(r.Context())
	h.logger.InfoContext(r.Context(), "session created",
		slog.String("session_id", info.ID),
		slog.String("request_id", middleware.GetReqID(r.Context())))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

// DeleteSession handles DELETE /api/sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSession(r.Context(), sessionID(r)); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBenchmark handles GET /api/sessions/{sessionID}/benchmark
func (h *SessionHandler) GetBenchmark(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Benchmark(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, table)
}

// LoadBenchmark handles PUT /api/sessions/{sessionID}/benchmark
func (h *SessionHandler) LoadBenchmark(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.readUploads(r, fieldBenchmark)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if len(uploads) != 1 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(fieldBenchmark, "exactly one benchmark file is required"))
		return
	}

	info, err := h.service.LoadBenchmark(r.Context(), sessionID(r), uploads[0])
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// ClearBenchmark handles DELETE /api/sessions/{sessionID}/benchmark
func (h *SessionHandler) ClearBenchmark(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearBenchmark(r.Context(), sessionID(r)); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProcessBatch handles POST /api/sessions/{sessionID}/batches. A batch in
// which no table could be processed is answered with 422 and the failures.
func (h *SessionHandler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.readUploads(r, fieldTables)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.ProcessBatch(r.Context(), sessionID(r), uploads)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// LastBatch handles GET /api/sessions/{sessionID}/batches/latest
func (h *SessionHandler) LastBatch(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.LastBatch(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// DownloadDataset handles GET /api/sessions/{sessionID}/dataset
func (h *SessionHandler) DownloadDataset(w http.ResponseWriter, r *http.Request) {
	query := datasetQuery{
		Format: r.URL.Query().Get("format"),
		BOM:    r.URL.Query().Get("bom"),
	}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format, err := exporter.ParseFormat(query.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}
	req := services.ExportRequest{Format: format}
	if query.BOM != "" {
		bom, _ := strconv.ParseBool(query.BOM)
		req.BOM = &bom
	}

	ds, err := h.service.Dataset(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Encode fully before writing headers so a failure still yields a problem
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), ds, req, &buf); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewStorageError("dataset export failed", err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "dataset download interrupted",
			slog.String("session_id", sessionID(r)),
			slog.String("error", err.Error()))
	}
}

// Events handles GET /api/sessions/{sessionID}/events
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	h.events.ServeSession(w, r, sessionID(r))
}

// readUploads reads every file part named field. File names are checked
// before any content is read.
func (h *SessionHandler) readUploads(r *http.Request, field string) ([]domain.Upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, apierrors.InvalidRequestWithError(err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[field]
	names := make([]string, len(headers))
	for i, fh := range headers {
		names[i] = fh.Filename
	}
	if err := h.uploads.ValidateUploadNames(names); err != nil {
		return nil, err
	}

	uploads := make([]domain.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, apierrors.InvalidRequestWithError(fmt.Errorf("read %s: %w", fh.Filename, err))
		}
		uploads = append(uploads, domain.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
