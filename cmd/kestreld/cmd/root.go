// Package cmd implements the kestreld CLI commands, grounded on
// ipiton-alert-history-service's cmd/template-validator/cmd package for the
// cobra root/subcommand/init wiring.
package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "kestreld",
	Short: "Run a kestrel HTTP/WebSocket server",
	Long: `kestreld runs a kestrel server process from a configuration file or
command-line flags.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
