// Package entitlement provides CLI commands for the entitlement engine.
package entitlement

import "github.com/spf13/cobra"

// Cmd is the entitlement command group.
var Cmd = &cobra.Command{
	Use:   "entitlement",
	Short: "Evaluate and inspect feature entitlements",
	Long:  `Check gated actions, trial phase, and daily usage counters.`,
}

func init() {
	Cmd.AddCommand(checkCmd)
	Cmd.AddCommand(trialCmd)
	Cmd.AddCommand(usageCmd)
	Cmd.AddCommand(promptCmd)
}
