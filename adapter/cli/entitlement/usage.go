package entitlement

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernhq/fern/adapter/cli"
	"github.com/fernhq/fern/internal/entitlement/domain"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show today's usage counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.EntitlementService == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Usage requires database connection.")
			return nil
		}

		usage, err := app.EntitlementService.Usage(cmd.Context(), app.CurrentUserID, time.Now())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Usage for %s (UTC)\n", usage.Day)
		fmt.Fprintf(cmd.OutOrStdout(), "  messages:     %d/%d\n", usage.MessagesSent, domain.TrialDailyMessageLimit)
		fmt.Fprintf(cmd.OutOrStdout(), "  data imports: %d/%d\n", usage.DataImportsUsed, domain.TrialDataImportLimit)
		fmt.Fprintf(cmd.OutOrStdout(), "  messages all-time: %d\n", usage.TotalMessagesSent)
		return nil
	},
}
