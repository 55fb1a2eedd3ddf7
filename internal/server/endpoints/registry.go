package endpoints

import (
	"github.com/snipd/snipd/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Snippet endpoints
		&ListSnippetsEndpoint{},
		&GetSnippetEndpoint{},
		&CreateSnippetEndpoint{},
		&UpdateSnippetEndpoint{},
		&DeleteSnippetEndpoint{},
		&ValidateSnippetEndpoint{},

		// Resolution
		&ResolveEndpoint{},

		// Regeneration
		&RegenerateEndpoint{},
		&RegenerateStatusEndpoint{},
		&WaitEndpoint{},

		// Generation history
		&ListCallsEndpoint{},
	}
}

// SnippetCommands returns endpoints for snippet CRUD, grouped under the
// "snippets" subcommand.
func SnippetCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListSnippetsEndpoint{},
		&GetSnippetEndpoint{},
		&CreateSnippetEndpoint{},
		&UpdateSnippetEndpoint{},
		&DeleteSnippetEndpoint{},
		&ValidateSnippetEndpoint{},
	}
}

// RegenerateCommands returns endpoints grouped under the "regenerate"
// subcommand.
func RegenerateCommands() []api.Endpoint {
	return []api.Endpoint{
		&RegenerateEndpoint{},
		&RegenerateStatusEndpoint{},
	}
}
