package main

import (
	"github.com/spf13/cobra"

	"github.com/snipd/snipd/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running snipd server via HTTP.

These commands require a running server (snipd serve).
Use --server to specify a custom server URL.

Examples:
  snipd api health                  # Check server health
  snipd api snippets list           # List all snippets
  snipd api snippets get <name>     # Get a specific snippet
  snipd api wait <name> [name...]   # Wait for snippets to settle`,
}

var snippetsCmd = &cobra.Command{
	Use:   "snippets",
	Short: "Snippet management commands",
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Regeneration control commands",
}

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "LLM call history commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8585", "Server URL",
	)

	// Health and status at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	// Resolution and waiting at top level of api
	apiCmd.AddCommand((&endpoints.ResolveEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.WaitEndpoint{}).Command(getServerURL))

	// Snippets as subcommand group
	for _, ep := range endpoints.SnippetCommands() {
		snippetsCmd.AddCommand(ep.Command(getServerURL))
	}

	// Regeneration as subcommand group
	for _, ep := range endpoints.RegenerateCommands() {
		regenerateCmd.AddCommand(ep.Command(getServerURL))
	}

	// Call history as subcommand group
	callsCmd.AddCommand((&endpoints.ListCallsEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(snippetsCmd)
	apiCmd.AddCommand(regenerateCmd)
	apiCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(apiCmd)
}
