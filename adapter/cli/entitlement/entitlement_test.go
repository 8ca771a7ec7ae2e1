package entitlement

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernhq/fern/adapter/cli"
	internalApp "github.com/fernhq/fern/internal/app"
	"github.com/fernhq/fern/pkg/config"
)

// testUserID is a fixed user ID for tests
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

func TestCheckCmd_AllowsMessage(t *testing.T) {
	app := setupTestApp(t)
	cli.SetApp(app)
	defer cli.SetApp(nil)

	checkPersona = ""
	out := runCommand(t, checkCmd, []string{"send_message"})
	assert.Contains(t, out, "Allowed: send_message")
}

func TestCheckCmd_DeniesPremiumPersona(t *testing.T) {
	app := setupTestApp(t)
	cli.SetApp(app)
	defer cli.SetApp(nil)

	checkPersona = "sage"
	defer func() { checkPersona = "" }()

	out := runCommand(t, checkCmd, []string{"access_persona"})
	assert.Contains(t, out, "Denied: access_persona")
	assert.Contains(t, out, "PERSONA_BLOCK")
}

func TestCheckCmd_AllowsTrialPersona(t *testing.T) {
	app := setupTestApp(t)
	cli.SetApp(app)
	defer cli.SetApp(nil)

	checkPersona = "ember"
	defer func() { checkPersona = "" }()

	out := runCommand(t, checkCmd, []string{"access_persona"})
	assert.Contains(t, out, "Allowed: access_persona")
}

func TestCheckCmd_UnknownAction(t *testing.T) {
	app := setupTestApp(t)
	cli.SetApp(app)
	defer cli.SetApp(nil)

	checkPersona = ""
	checkCmd.SetContext(context.Background())
	err := checkCmd.RunE(checkCmd, []string{"delete_account"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestCheckCmd_NoApp(t *testing.T) {
	cli.SetApp(nil)

	out := runCommand(t, checkCmd, []string{"send_message"})
	assert.Contains(t, out, "requires database connection")
}

func TestTrialCmd(t *testing.T) {
	app := setupTestApp(t)
	cli.SetApp(app)
	defer cli.SetApp(nil)

	out := runCommand(t, trialCmd, []string{})
	assert.Contains(t, out, "Trial: active")
	assert.Contains(t, out, "days remaining: 14")
}

func TestUsageCmd(t *testing.T) {
	app := setupTestApp(t)
	cli.SetApp(app)
	defer cli.SetApp(nil)

	checkPersona = ""
	runCommand(t, checkCmd, []string{"send_message"})

	out := runCommand(t, usageCmd, []string{})
	assert.Contains(t, out, "messages:     1/15")
	assert.Contains(t, out, "data imports: 0/1")
}

func TestPromptCmd(t *testing.T) {
	app := setupTestApp(t)
	cli.SetApp(app)
	defer cli.SetApp(nil)

	out := runCommand(t, promptCmd, []string{})
	assert.Contains(t, out, "No prompt due.")
}

func TestCmd_RegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range Cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["check"])
	assert.True(t, names["trial"])
	assert.True(t, names["usage"])
	assert.True(t, names["prompt"])
}
