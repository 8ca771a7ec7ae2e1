package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fernhq/fern/internal/entitlement/application"
	"github.com/fernhq/fern/internal/entitlement/cache"
	"github.com/fernhq/fern/internal/entitlement/domain"
)

// EntitlementHandler handles entitlement API requests.
type EntitlementHandler struct {
	service   *application.Service
	snapshots *cache.RedisSnapshotStore
	logger    *slog.Logger
}

// NewEntitlementHandler creates a new entitlement handler. The snapshot
// store may be nil; snapshot responses are then computed but not cached.
func NewEntitlementHandler(service *application.Service, snapshots *cache.RedisSnapshotStore, logger *slog.Logger) *EntitlementHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntitlementHandler{
		service:   service,
		snapshots: snapshots,
		logger:    logger,
	}
}

// Decide handles POST /api/v1/decisions
func (h *EntitlementHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req application.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	decision, err := h.service.Decide(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "failed to evaluate decision", err)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

// TrialStatus handles GET /api/v1/users/{userID}/trial
func (h *EntitlementHandler) TrialStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	phase, err := h.service.TrialStatus(r.Context(), userID, time.Now())
	if err != nil {
		h.writeServiceError(w, "failed to compute trial status", err)
		return
	}

	writeJSON(w, http.StatusOK, phase)
}

// Usage handles GET /api/v1/users/{userID}/usage
func (h *EntitlementHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	usage, err := h.service.Usage(r.Context(), userID, time.Now())
	if err != nil {
		h.writeServiceError(w, "failed to load usage", err)
		return
	}

	writeJSON(w, http.StatusOK, usage)
}

// Snapshot handles GET /api/v1/users/{userID}/snapshot
//
// Returns the full set of decision inputs so the device can evaluate
// local hints with the same rules the server enforces.
func (h *EntitlementHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	sub, usage, err := h.service.DecisionInputs(r.Context(), userID, now)
	if err != nil {
		h.writeServiceError(w, "failed to load decision inputs", err)
		return
	}

	snap := cache.NewSnapshot(sub, usage, now)
	if h.snapshots != nil {
		if err := h.snapshots.Save(r.Context(), snap); err != nil {
			// Serving the snapshot matters more than caching it.
			h.logger.Warn("failed to cache snapshot", "user_id", userID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, snap)
}

// PollPrompt handles POST /api/v1/users/{userID}/prompts/poll
//
// Reports whether a scheduled upgrade prompt is due, recording it when it
// is so the same threshold never fires twice.
func (h *EntitlementHandler) PollPrompt(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	due, err := h.service.ShouldPrompt(r.Context(), userID, time.Now())
	if err != nil {
		h.writeServiceError(w, "failed to evaluate prompt schedule", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"due":     due,
		"trigger": domain.TriggerTrialProgress,
	})
}

func (h *EntitlementHandler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Entitlement store unavailable")
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return uuid.Nil, false
	}
	return userID, true
}
