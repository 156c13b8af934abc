// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	service "github.com/okian/fpti/internal/app"
	"github.com/okian/fpti/internal/calibration"
	"github.com/okian/fpti/internal/domain/model"
	"github.com/okian/fpti/internal/domain/normalize"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Classify runs a batch synchronously and returns one report per input
	// record, in input order.
	Classify(ctx context.Context, version, popTag string, records []model.RawStatRecord) ([]model.ClassificationReport, error)

	// StartBatch accepts a batch for asynchronous processing.
	StartBatch(ctx context.Context, version, popTag string, records []model.RawStatRecord) (string, error)

	// Batch returns a snapshot of an accepted batch.
	Batch(ctx context.Context, id string) (BatchSnapshot, error)

	// PublishProfile validates and publishes a calibration profile document.
	PublishProfile(ctx context.Context, raw []byte) (ProfileInfo, error)

	// ProfileInfo returns metadata for a published profile version.
	ProfileInfo(ctx context.Context, version string) (ProfileInfo, error)

	// PublishPopulation builds and publishes a reference population.
	PublishPopulation(ctx context.Context, tag string, records []model.RawStatRecord, opts ...normalize.PopulationOption) (service.PopulationInfo, error)
}

// Read shapes returned by the service layer.
type (
	BatchSnapshot  = service.BatchSnapshot
	ProfileInfo    = service.ProfileInfo
	PopulationInfo = service.PopulationInfo
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	classifyHandler    *ClassifyHandler
	batchesHandler     *BatchesHandler
	profilesHandler    *ProfilesHandler
	populationsHandler *PopulationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		classifyHandler:    NewClassifyHandler(deps),
		batchesHandler:     NewBatchesHandler(deps),
		profilesHandler:    NewProfilesHandler(deps),
		populationsHandler: NewPopulationsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/classify/async", MetricsMiddleware(s.classifyHandler.HandleClassifyAsync, "classify_async"))
	mux.HandleFunc("/classify", MetricsMiddleware(s.classifyHandler.HandleClassify, "classify"))
	mux.HandleFunc("/batches/", MetricsMiddleware(s.batchesHandler.HandleGetBatch, "batches"))
	mux.HandleFunc("/profiles/", MetricsMiddleware(s.profilesHandler.HandleGetProfile, "profiles"))
	mux.HandleFunc("/profiles", MetricsMiddleware(s.profilesHandler.HandlePostProfile, "profiles"))
	mux.HandleFunc("/populations", MetricsMiddleware(s.populationsHandler.HandlePostPopulation, "populations"))
}

// recordPayload is the wire shape of one raw stat record.
type recordPayload struct {
	PlayerID      string             `json:"player_id"`
	PlayerName    string             `json:"player_name,omitempty"`
	Position      string             `json:"position"`
	RecordVersion string             `json:"record_version,omitempty"`
	Minutes       float64            `json:"minutes"`
	Stats         map[string]float64 `json:"stats"`
}

func (p recordPayload) validate() error {
	if strings.TrimSpace(p.PlayerID) == "" {
		return errors.New("missing player_id")
	}
	if math.IsNaN(p.Minutes) || math.IsInf(p.Minutes, 0) || p.Minutes < 0 {
		return errors.New("invalid minutes")
	}
	for name, v := range p.Stats {
		if strings.TrimSpace(name) == "" {
			return errors.New("empty stat name")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite stat value: " + name)
		}
	}
	return nil
}

func (p recordPayload) toModel() model.RawStatRecord {
	return model.RawStatRecord{
		PlayerID:      p.PlayerID,
		PlayerName:    p.PlayerName,
		Position:      p.Position,
		RecordVersion: p.RecordVersion,
		Minutes:       p.Minutes,
		Stats:         p.Stats,
	}
}

// classifyRequest is the wire shape for POST /classify and
// POST /classify/async.
type classifyRequest struct {
	ProfileVersion string          `json:"profile_version"`
	PopulationTag  string          `json:"population_tag,omitempty"`
	Records        []recordPayload `json:"records"`
}

// validate checks structure only. An empty profile_version is allowed; the
// service substitutes its configured default.
func (c classifyRequest) validate() error {
	if len(c.Records) == 0 {
		return errors.New("missing records")
	}
	for i, rec := range c.Records {
		if err := rec.validate(); err != nil {
			return fmt.Errorf("records[%d]: %w", i, err)
		}
	}
	return nil
}

func (c classifyRequest) records() []model.RawStatRecord {
	out := make([]model.RawStatRecord, len(c.Records))
	for i, rec := range c.Records {
		out[i] = rec.toModel()
	}
	return out
}

type classifyResponse struct {
	ProfileVersion string                       `json:"profile_version"`
	PopulationTag  string                       `json:"population_tag,omitempty"`
	Reports        []model.ClassificationReport `json:"reports"`
}

type acceptResponse struct {
	BatchID string `json:"batch_id"`
	Status  string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// statusFor maps service errors to HTTP statuses and wire codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, calibration.ErrProfileNotFound),
		errors.Is(err, service.ErrPopulationNotFound),
		errors.Is(err, service.ErrBatchNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, calibration.ErrProfileInvalid),
		errors.Is(err, service.ErrNoRecords):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, calibration.ErrProfileConflict),
		errors.Is(err, service.ErrPopulationConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge, "batch_too_large"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return statusClientClosedRequest, "cancelled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// Non-standard status used when the client abandons a request mid-batch.
const statusClientClosedRequest = 499
