// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/fpti/internal/domain/model"
)

// ClassifyDependencies defines the interface for classification requests.
type ClassifyDependencies interface {
	Classify(ctx context.Context, version, popTag string, records []model.RawStatRecord) ([]model.ClassificationReport, error)
	StartBatch(ctx context.Context, version, popTag string, records []model.RawStatRecord) (string, error)
}

// ClassifyHandler handles classification requests.
type ClassifyHandler struct {
	deps ClassifyDependencies
}

// NewClassifyHandler creates a new classify handler.
func NewClassifyHandler(deps ClassifyDependencies) *ClassifyHandler {
	return &ClassifyHandler{deps: deps}
}

// HandleClassify handles POST /classify requests. The whole batch is
// processed before the response is written; reports come back in input
// order, one per record.
func (h *ClassifyHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	req, ok := h.decode(w, r, op)
	if !ok {
		return
	}

	reports, err := h.deps.Classify(r.Context(), req.ProfileVersion, req.PopulationTag, req.records())
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, classifyResponse{
		ProfileVersion: req.ProfileVersion,
		PopulationTag:  req.PopulationTag,
		Reports:        reports,
	})
}

// HandleClassifyAsync handles POST /classify/async requests. The batch is
// validated up front and then processed in the background; poll
// GET /batches/{id} for results.
func (h *ClassifyHandler) HandleClassifyAsync(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify_async"
	req, ok := h.decode(w, r, op)
	if !ok {
		return
	}

	id, err := h.deps.StartBatch(r.Context(), req.ProfileVersion, req.PopulationTag, req.records())
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, acceptResponse{BatchID: id, Status: "accepted"})
}

func (h *ClassifyHandler) decode(w http.ResponseWriter, r *http.Request, op string) (classifyRequest, bool) {
	var req classifyRequest
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return req, false
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return req, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return req, false
	}
	return req, true
}
