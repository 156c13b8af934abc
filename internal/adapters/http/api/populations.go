// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/fpti/internal/domain/model"
	"github.com/okian/fpti/internal/domain/normalize"
)

// PopulationDependencies defines the interface for reference population
// operations.
type PopulationDependencies interface {
	PublishPopulation(ctx context.Context, tag string, records []model.RawStatRecord, opts ...normalize.PopulationOption) (PopulationInfo, error)
}

// PopulationsHandler handles reference population requests.
type PopulationsHandler struct {
	deps PopulationDependencies
}

// NewPopulationsHandler creates a new populations handler.
func NewPopulationsHandler(deps PopulationDependencies) *PopulationsHandler {
	return &PopulationsHandler{deps: deps}
}

// populationRequest is the wire shape for POST /populations.
type populationRequest struct {
	Tag           string          `json:"tag"`
	PositionGroup string          `json:"position_group,omitempty"`
	MinMinutes    float64         `json:"min_minutes,omitempty"`
	Records       []recordPayload `json:"records"`
}

func (p populationRequest) validate() error {
	if strings.TrimSpace(p.Tag) == "" {
		return errors.New("missing tag")
	}
	if len(p.Records) == 0 {
		return errors.New("missing records")
	}
	if p.MinMinutes < 0 {
		return errors.New("invalid min_minutes")
	}
	return nil
}

// HandlePostPopulation handles POST /populations requests.
func (h *PopulationsHandler) HandlePostPopulation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_population"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req populationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	records := make([]model.RawStatRecord, len(req.Records))
	for i, rec := range req.Records {
		records[i] = rec.toModel()
	}
	var opts []normalize.PopulationOption
	if req.PositionGroup != "" {
		opts = append(opts, normalize.WithPositionGroup(req.PositionGroup))
	}
	if req.MinMinutes > 0 {
		opts = append(opts, normalize.WithPopulationMinMinutes(req.MinMinutes))
	}

	info, err := h.deps.PublishPopulation(r.Context(), req.Tag, records, opts...)
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, info)
}
