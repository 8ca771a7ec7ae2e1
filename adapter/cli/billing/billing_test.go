package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernhq/fern/adapter/cli"
	internalApp "github.com/fernhq/fern/internal/app"
	billingApplication "github.com/fernhq/fern/internal/billing/application"
	"github.com/fernhq/fern/internal/billing/domain"
	"github.com/fernhq/fern/pkg/config"
)

var testUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func setupTestApp(t *testing.T) *cli.App {
	t.Helper()

	cfg := &config.Config{
		AppEnv:   "test",
		LogLevel: "error",
		UserID:   testUserID.String(),
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	container := internalApp.NewMemoryContainer(cfg, logger)
	t.Cleanup(func() { container.Close() })

	cliApp := cli.NewApp(container.EntitlementService, container.BillingService)
	cliApp.SetCurrentUserID(testUserID)
	return cliApp
}

func runCommand(t *testing.T, cmd *cobra.Command, args []string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.RunE(cmd, args))
	return out.String()
}

func writeEventFile(t *testing.T, event billingApplication.WebhookEvent) string {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, payload, 0o600))
	return path
}

func TestStatusCmd_NoSubscription(t *testing.T) {
	app := setupTestApp(t)
	cli.SetApp(app)
	defer cli.SetApp(nil)

	out := runCommand(t, statusCmd, []string{})
	assert.Contains(t, out, "No subscription found.")
}

func TestStatusCmd_ShowsSubscription(t *testing.T) {
	app := setupTestApp(t)
	cli.SetApp(app)
	defer cli.SetApp(nil)

	periodEnd := time.Now().UTC().Add(30 * 24 * time.Hour)
	_, err := app.BillingService.SetSubscriptionPlan(context.Background(), testUserID,
		domain.PlanPremium, domain.StatusActive, &periodEnd)
	require.NoError(t, err)

	out := runCommand(t, statusCmd, []string{})
	assert.Contains(t, out, "Subscription: premium (active)")
	assert.Contains(t, out, "Access: premium")
	assert.Contains(t, out, "Period ends:")
}

func TestStatusCmd_NoApp(t *testing.T) {
	cli.SetApp(nil)

	out := runCommand(t, statusCmd, []string{})
	assert.Contains(t, out, "requires database connection")
}

func TestWebhookCmd_AppliesEvent(t *testing.T) {
	app := setupTestApp(t)
	cli.SetApp(app)
	defer cli.SetApp(nil)

	webhookEventPath = writeEventFile(t, billingApplication.WebhookEvent{
		Type:           billingApplication.EventCheckoutCompleted,
		UserID:         testUserID,
		CustomerID:     "cus_cli",
		SubscriptionID: "sub_cli",
	})
	defer func() { webhookEventPath = "" }()

	out := runCommand(t, webhookCmd, []string{})
	assert.Contains(t, out, "Applied billing event: checkout.completed")
	assert.Contains(t, out, "Subscription: premium (active)")

	sub, err := app.BillingService.GetSubscription(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, sub.Plan)
}

func TestWebhookCmd_MissingEventPath(t *testing.T) {
	app := setupTestApp(t)
	cli.SetApp(app)
	defer cli.SetApp(nil)

	webhookEventPath = ""
	webhookCmd.SetContext(context.Background())
	err := webhookCmd.RunE(webhookCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event path is required")
}

func TestWebhookCmd_InvalidPayload(t *testing.T) {
	app := setupTestApp(t)
	cli.SetApp(app)
	defer cli.SetApp(nil)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	webhookEventPath = path
	defer func() { webhookEventPath = "" }()

	webhookCmd.SetContext(context.Background())
	err := webhookCmd.RunE(webhookCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid webhook payload")
}

func TestWebhookCmd_NoApp(t *testing.T) {
	cli.SetApp(nil)

	webhookEventPath = writeEventFile(t, billingApplication.WebhookEvent{
		Type:   billingApplication.EventCheckoutCompleted,
		UserID: uuid.New(),
	})
	defer func() { webhookEventPath = "" }()

	out := runCommand(t, webhookCmd, []string{})
	assert.Contains(t, out, "not applied")
}

func TestCmd_RegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range Cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["status"])
	assert.True(t, names["webhook"])
}
