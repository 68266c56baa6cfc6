package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/FACorreiaa/household-budget/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/household-budget/internal/domain/import/service"
	"github.com/FACorreiaa/household-budget/pkg/interceptors"
)

// multipart overhead allowed on top of the file limit
const formOverhead = 1 << 20

// ImportService is what the handler needs from the import service.
type ImportService interface {
	Preview(ctx context.Context, householdID uuid.UUID, upload importservice.Upload) (*importservice.Preview, error)
	Commit(ctx context.Context, householdID uuid.UUID, req importservice.CommitRequest) (*importservice.CommitResult, error)
	ListSources(ctx context.Context, householdID uuid.UUID) ([]repository.Source, error)
	MaxUploadBytes() int64
}

// ImportHandler serves the import endpoints
type ImportHandler struct {
	importSvc ImportService
	logger    *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importSvc ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc: importSvc,
		logger:    logger,
	}
}

// Register mounts the routes. Every route requires a household.
func (h *ImportHandler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/import/preview", interceptors.RequireHousehold(http.HandlerFunc(h.Preview)))
	mux.Handle("POST /api/import/commit", interceptors.RequireHousehold(http.HandlerFunc(h.Commit)))
	mux.Handle("GET /api/import/sources", interceptors.RequireHousehold(http.HandlerFunc(h.ListSources)))
}

// Preview handles POST /api/import/preview
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	householdID, ok := interceptors.GetHouseholdIDFromContext(r.Context())
	if !ok {
		interceptors.WriteError(w, http.StatusUnauthorized, "missing household")
		return
	}

	maxBytes := h.importSvc.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)
	if err := r.ParseMultipartForm(maxBytes + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			interceptors.WriteError(w, http.StatusBadRequest, "file is too large")
			return
		}
		interceptors.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	upload := importservice.Upload{
		SourceLabel: r.FormValue("sourceLabel"),
		FileType:    r.FormValue("fileType"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// the service reports the missing file
	case err != nil:
		interceptors.WriteError(w, http.StatusBadRequest, "invalid file upload")
		return
	default:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			h.logger.Error("failed to read upload", slog.Any("error", err))
			interceptors.WriteError(w, http.StatusBadRequest, "could not read the uploaded file")
			return
		}
		upload.FileName = header.Filename
		upload.Size = header.Size
		upload.Data = data
	}

	preview, err := h.importSvc.Preview(r.Context(), householdID, upload)
	if err != nil {
		h.writeServiceError(w, "import preview failed", err)
		return
	}

	interceptors.WriteJSON(w, http.StatusOK, preview)
}

// Commit handles POST /api/import/commit
func (h *ImportHandler) Commit(w http.ResponseWriter, r *http.Request) {
	householdID, ok := interceptors.GetHouseholdIDFromContext(r.Context())
	if !ok {
		interceptors.WriteError(w, http.StatusUnauthorized, "missing household")
		return
	}

	var req importservice.CommitRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.importSvc.MaxUploadBytes())
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		interceptors.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.importSvc.Commit(r.Context(), householdID, req)
	if err != nil {
		h.writeServiceError(w, "import commit failed", err)
		return
	}

	interceptors.WriteJSON(w, http.StatusOK, result)
}

// ListSources handles GET /api/import/sources
func (h *ImportHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	householdID, ok := interceptors.GetHouseholdIDFromContext(r.Context())
	if !ok {
		interceptors.WriteError(w, http.StatusUnauthorized, "missing household")
		return
	}

	sources, err := h.importSvc.ListSources(r.Context(), householdID)
	if err != nil {
		h.writeServiceError(w, "failed to list import sources", err)
		return
	}

	interceptors.WriteJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (h *ImportHandler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	var vErr *importservice.ValidationError
	switch {
	case errors.As(err, &vErr):
		interceptors.WriteError(w, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, importservice.ErrNoTransactions), errors.Is(err, importservice.ErrNothingToCommit):
		interceptors.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error(msg, slog.Any("error", err))
		interceptors.WriteError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}
