// Package handler serves the document ingestion endpoint.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/logger"
)

const (
	maxBodyBytes  = 2 << 20
	maxBatchBytes = 32 << 20
	maxBatchSize  = 500
)

type Handler struct {
	publisher *publisher.Publisher
	logger    *slog.Logger
}

func New(pub *publisher.Publisher) *Handler {
	return &Handler{
		publisher: pub,
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	var req ingestion.IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validator.ValidateIngestRequest(&req); err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.publisher.Ingest(ctx, &req)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("ingestion failed",
			"error", err,
			"status_code", statusCode,
		)
		h.writeError(w, statusCode, "document could not be queued")
		return
	}
	log.Info("document queued for indexing",
		"doc_id", resp.DocumentID,
		"locale", req.Locale,
	)
	h.writeJSON(w, http.StatusAccepted, resp)
}

// IngestBatch accepts {"documents": [...]} and queues all of them or none.
func (h *Handler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	var body struct {
		Documents []ingestion.IngestRequest `json:"documents"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBytes)).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(body.Documents) == 0 || len(body.Documents) > maxBatchSize {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("documents must hold 1 to %d entries", maxBatchSize))
		return
	}
	invalid := make(map[string]map[string]string)
	for i := range body.Documents {
		var validationErr *validator.ValidationError
		if err := validator.ValidateIngestRequest(&body.Documents[i]); errors.As(err, &validationErr) {
			invalid[strconv.Itoa(i)] = validationErr.Fields
		}
	}
	if len(invalid) > 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     "validation failed",
			"documents": invalid,
		})
		return
	}

	resps, err := h.publisher.IngestBatch(ctx, body.Documents)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("batch ingestion failed", "count", len(body.Documents), "error", err, "status_code", statusCode)
		h.writeError(w, statusCode, "documents could not be queued")
		return
	}
	log.Info("documents queued for indexing", "count", len(resps))
	h.writeJSON(w, http.StatusAccepted, map[string]any{"documents": resps})
}

// Routes registers the handler's endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/documents", h.Ingest)
	mux.HandleFunc("POST /api/v1/documents/batch", h.IngestBatch)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
