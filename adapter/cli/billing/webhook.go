package billing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fernhq/fern/adapter/cli"
	"github.com/fernhq/fern/internal/billing/application"
	"github.com/fernhq/fern/internal/shared/infrastructure/security"
)

var webhookEventPath string

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Apply a billing webhook payload",
	Long: `Apply a normalized billing provider event from a JSON file, driving the
subscription state machine the same way the HTTP webhook endpoint does.

Examples:
  fern billing webhook --event ./event.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if webhookEventPath == "" {
			return errors.New("event path is required")
		}

		payload, err := security.SafeReadFile(webhookEventPath)
		if err != nil {
			return err
		}

		var event application.WebhookEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("invalid webhook payload: %w", err)
		}

		app := cli.GetApp()
		if app == nil || app.BillingService == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Parsed billing event: %s (no database connection, not applied)\n", event.Type)
			return nil
		}

		sub, err := app.BillingService.ProcessEvent(cmd.Context(), event)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Applied billing event: %s\n", event.Type)
		fmt.Fprintf(cmd.OutOrStdout(), "Subscription: %s (%s)\n", sub.Plan, sub.Status)
		return nil
	},
}

func init() {
	webhookCmd.Flags().StringVar(&webhookEventPath, "event", "", "path to webhook event JSON")
}
