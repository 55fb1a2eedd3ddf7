package main

import (
	"github.com/spf13/cobra"

	"github.com/snipd/snipd/internal/api"
	"github.com/snipd/snipd/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "snipd",
	Short: "Snippet store with dependency-aware LLM regeneration",
	Long: `Snipd stores named text snippets that can reference each other with
@name syntax. Generated snippets are produced by an LLM from a prompt,
and whenever a snippet changes, everything that depends on it is
regenerated automatically in dependency order.

Snippets are served over an HTTP API:
  - Create, update, and delete snippets
  - Resolve @references in arbitrary text
  - Trigger regeneration and wait for snippets to settle`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.snipd/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "snipd home directory (default: ~/.snipd)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
