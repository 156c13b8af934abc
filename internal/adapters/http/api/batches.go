// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"
)

// BatchDependencies defines the interface for batch lookups.
type BatchDependencies interface {
	Batch(ctx context.Context, id string) (BatchSnapshot, error)
}

// BatchesHandler handles batch status requests.
type BatchesHandler struct {
	deps BatchDependencies
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(deps BatchDependencies) *BatchesHandler {
	return &BatchesHandler{deps: deps}
}

// HandleGetBatch handles GET /batches/{batch_id} requests.
func (h *BatchesHandler) HandleGetBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_batch"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /batches/
	id := strings.TrimPrefix(r.URL.Path, "/batches/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	snap, err := h.deps.Batch(r.Context(), id)
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
