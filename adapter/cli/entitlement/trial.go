package entitlement

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernhq/fern/adapter/cli"
	"github.com/fernhq/fern/internal/entitlement/domain"
)

var trialCmd = &cobra.Command{
	Use:   "trial",
	Short: "Show trial phase",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.EntitlementService == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Trial status requires database connection.")
			return nil
		}

		phase, err := app.EntitlementService.TrialStatus(cmd.Context(), app.CurrentUserID, time.Now())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Trial: %s\n", phase.Phase)
		if phase.Phase == domain.PhaseActive {
			fmt.Fprintf(cmd.OutOrStdout(), "  days remaining: %d\n", phase.DaysRemaining)
			fmt.Fprintf(cmd.OutOrStdout(), "  progress:       %.0f%%\n", phase.ProgressPercent)
		}
		return nil
	},
}
