package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/fernhq/fern/internal/billing/application"
	"github.com/fernhq/fern/internal/billing/domain"
)

// BillingHandler handles billing API requests.
type BillingHandler struct {
	service *application.Service
	logger  *slog.Logger
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(service *application.Service, logger *slog.Logger) *BillingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BillingHandler{service: service, logger: logger}
}

// GetSubscription handles GET /api/v1/users/{userID}/subscription
func (h *BillingHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	sub, err := h.service.GetSubscription(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			writeError(w, http.StatusNotFound, "Subscription not found")
			return
		}
		h.logger.Error("failed to load subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

// Webhook handles POST /api/v1/billing/webhook
//
// The payment provider's transport-level signature check happens at the
// edge; events arriving here are already authenticated and normalized.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var event application.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if event.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	sub, err := h.service.ProcessEvent(r.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownBillingEvent):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("failed to process billing event",
				"event_type", event.Type,
				"error", err,
			)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, sub)
}
