package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernhq/fern/adapter/cli"
	"github.com/fernhq/fern/internal/billing/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show subscription status",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingService == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Billing status requires database connection.")
			return nil
		}

		subscription, err := app.BillingService.GetSubscription(cmd.Context(), app.CurrentUserID)
		if err != nil {
			if errors.Is(err, domain.ErrSubscriptionNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No subscription found.")
				return nil
			}
			return err
		}

		now := time.Now().UTC()
		fmt.Fprintf(cmd.OutOrStdout(), "Subscription: %s (%s)\n", subscription.Plan, subscription.Status)
		fmt.Fprintf(cmd.OutOrStdout(), "Access: %s\n", subscription.AccessState(now))
		if subscription.Plan == domain.PlanTrial {
			fmt.Fprintf(cmd.OutOrStdout(), "Trial ends: %s\n", subscription.TrialEnd.Local().Format(time.RFC1123))
		}
		if subscription.CurrentPeriodEnd != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Period ends: %s\n", subscription.CurrentPeriodEnd.Local().Format(time.RFC1123))
		}
		if subscription.StripeCustomerID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Stripe customer: %s\n", subscription.StripeCustomerID)
		}
		if subscription.StripeSubscriptionID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Stripe subscription: %s\n", subscription.StripeSubscriptionID)
		}

		return nil
	},
}
