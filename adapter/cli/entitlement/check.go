package entitlement

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fernhq/fern/adapter/cli"
	"github.com/fernhq/fern/internal/entitlement/application"
	"github.com/fernhq/fern/internal/entitlement/domain"
)

var checkPersona string

var checkCmd = &cobra.Command{
	Use:   "check <action>",
	Short: "Evaluate a gated action",
	Long: `Evaluate a gated action for the current user through the authoritative
decision path, consuming quota when the action is mutating.

Examples:
  fern entitlement check send_message
  fern entitlement check access_persona --persona ember
  fern entitlement check view_insights`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.EntitlementService == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Entitlement check requires database connection.")
			return nil
		}

		action := domain.Action(args[0])
		decision, err := app.EntitlementService.Decide(cmd.Context(), application.Request{
			UserID: app.CurrentUserID,
			Action: action,
			Params: domain.Params{Persona: checkPersona},
		})
		if err != nil {
			if errors.Is(err, domain.ErrUnknownAction) {
				return fmt.Errorf("unknown action %q (valid: %v)", args[0], domain.Actions)
			}
			return err
		}

		if decision.Allowed {
			fmt.Fprintf(cmd.OutOrStdout(), "Allowed: %s\n", decision.Action)
			if decision.InsightsScope != nil && decision.InsightsScope.WindowDays > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  window: last %d days\n", decision.InsightsScope.WindowDays)
			}
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Denied: %s\n", decision.Action)
		fmt.Fprintf(cmd.OutOrStdout(), "  reason:  %s\n", decision.Reason)
		if decision.TriggerCode != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  trigger: %s\n", decision.TriggerCode)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkPersona, "persona", "", "persona ID for access_persona checks")
}
