package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billingApplication "github.com/fernhq/fern/internal/billing/application"
	billingDomain "github.com/fernhq/fern/internal/billing/domain"
)

func TestGetSubscriptionEndpoint(t *testing.T) {
	server, subs := setupTestServer(t)
	sub := billingDomain.NewTrialSubscription(uuid.New(), time.Now().UTC())
	require.NoError(t, subs.Upsert(context.Background(), sub))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+sub.UserID.String()+"/subscription", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got billingDomain.Subscription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sub.UserID, got.UserID)
	assert.Equal(t, billingDomain.PlanTrial, got.Plan)
}

func TestGetSubscriptionEndpoint_NotFound(t *testing.T) {
	server, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+uuid.NewString()+"/subscription", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookEndpoint_CheckoutCompleted(t *testing.T) {
	server, subs := setupTestServer(t)
	sub := billingDomain.NewTrialSubscription(uuid.New(), time.Now().UTC())
	require.NoError(t, subs.Upsert(context.Background(), sub))

	rec := postJSON(t, server, "/api/v1/billing/webhook", billingApplication.WebhookEvent{
		Type:           billingApplication.EventCheckoutCompleted,
		UserID:         sub.UserID,
		CustomerID:     "cus_web",
		SubscriptionID: "sub_web",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var got billingDomain.Subscription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, billingDomain.PlanPremium, got.Plan)
	assert.Equal(t, billingDomain.StatusActive, got.Status)
}

func TestWebhookEndpoint_Errors(t *testing.T) {
	server, subs := setupTestServer(t)
	sub := billingDomain.NewTrialSubscription(uuid.New(), time.Now().UTC())
	require.NoError(t, subs.Upsert(context.Background(), sub))

	rec := postJSON(t, server, "/api/v1/billing/webhook", billingApplication.WebhookEvent{
		Type:   "customer.updated",
		UserID: sub.UserID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown event type")

	// Canceling a trial is not a legal transition.
	rec = postJSON(t, server, "/api/v1/billing/webhook", billingApplication.WebhookEvent{
		Type:   billingApplication.EventSubscriptionCanceled,
		UserID: sub.UserID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = postJSON(t, server, "/api/v1/billing/webhook", billingApplication.WebhookEvent{
		Type: billingApplication.EventCheckoutCompleted,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing user_id")
}
