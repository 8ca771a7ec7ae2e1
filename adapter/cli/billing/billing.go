// Package billing provides CLI commands for subscription management.
package billing

import "github.com/spf13/cobra"

// Cmd is the billing command group.
var Cmd = &cobra.Command{
	Use:   "billing",
	Short: "Manage the subscription record",
	Long:  `Inspect subscription status and apply billing provider events.`,
}

func init() {
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(webhookCmd)
}
