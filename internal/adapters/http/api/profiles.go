// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"io"
	"net/http"
	"strings"
)

// maxProfileBytes caps the accepted size of a profile document.
const maxProfileBytes = 1 << 20

// ProfileDependencies defines the interface for calibration profile
// operations.
type ProfileDependencies interface {
	PublishProfile(ctx context.Context, raw []byte) (ProfileInfo, error)
	ProfileInfo(ctx context.Context, version string) (ProfileInfo, error)
}

// ProfilesHandler handles calibration profile requests.
type ProfilesHandler struct {
	deps ProfileDependencies
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps ProfileDependencies) *ProfilesHandler {
	return &ProfilesHandler{deps: deps}
}

// HandlePostProfile handles POST /profiles requests. The body is the raw
// YAML profile document; the version comes from the document itself.
func (h *ProfilesHandler) HandlePostProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_profile"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxProfileBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(raw) == 0 || len(raw) > maxProfileBytes {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	info, err := h.deps.PublishProfile(r.Context(), raw)
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// HandleGetProfile handles GET /profiles/{version} requests.
func (h *ProfilesHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /profiles/
	version := strings.TrimPrefix(r.URL.Path, "/profiles/")
	if version == "" || strings.Contains(version, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	info, err := h.deps.ProfileInfo(r.Context(), version)
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}
