// Package cli implements the stubwire command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// BuildInfo carries version details set at build time.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

var buildInfo = BuildInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"}

var rootCmd = &cobra.Command{
	Use:   "stubwire",
	Short: "Stateful HTTP stub server",
	Long: `stubwire serves stubbed HTTP responses from contract files.

Contracts pair a request matcher with a response template and can be gated
on scenario states, so a sequence of calls walks a scenario through its
state machine. Scenario states live in memory and reset via the admin API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation serves, matching `stubwire serve`
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI with the given build info.
func Execute(info BuildInfo) error {
	if info.Version != "" {
		buildInfo = info
	}
	return rootCmd.Execute()
}
