// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "authrelay",
	Short: "authrelay is an OpenID Connect relying-party service",
	Long: `authrelay authenticates users against one or more OpenID Connect
identity providers and provisions local user accounts from their claims.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
