package entitlement

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernhq/fern/adapter/cli"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Poll the upgrade prompt schedule",
	Long: `Report whether a scheduled upgrade prompt is due for the current user.
A due prompt is recorded, so the same trial-day threshold never fires twice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.EntitlementService == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Prompt schedule requires database connection.")
			return nil
		}

		due, err := app.EntitlementService.ShouldPrompt(cmd.Context(), app.CurrentUserID, time.Now())
		if err != nil {
			return err
		}

		if due {
			fmt.Fprintln(cmd.OutOrStdout(), "Upgrade prompt due.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No prompt due.")
		}
		return nil
	},
}
