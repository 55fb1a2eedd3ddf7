package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/snipd/snipd/internal/api"
	"github.com/snipd/snipd/internal/svcctx"
)

// RegenerateResponse reports whether a trigger started a pass.
type RegenerateResponse struct {
	Started bool `json:"started"`
}

// RegenerateEndpoint handles POST /api/regenerate.
type RegenerateEndpoint struct{}

func (e *RegenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/regenerate", e.handler
}

func (e *RegenerateEndpoint) RequiresInit() bool { return true }

func (e *RegenerateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng := svcctx.EngineFrom(r.Context())
	started := eng.Trigger(r.Context())
	writeJSON(w, http.StatusAccepted, RegenerateResponse{Started: started})
}

func (e *RegenerateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Trigger a regeneration pass",
		Long: `Trigger a regeneration pass over all stale snippets. A no-op when a
pass is already running; freshly dirtied snippets are picked up by the
next trigger.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp RegenerateResponse
			if err := client.Post(cmd.Context(), "/api/regenerate", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// RegenerateStatusResponse is the live regeneration status.
type RegenerateStatusResponse struct {
	Running      bool     `json:"running"`
	Regenerating []string `json:"regenerating,omitempty"`
	Cyclic       []string `json:"cyclic,omitempty"`
}

// RegenerateStatusEndpoint handles GET /api/regenerate/status.
type RegenerateStatusEndpoint struct{}

func (e *RegenerateStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/regenerate/status", e.handler
}

func (e *RegenerateStatusEndpoint) RequiresInit() bool { return true }

func (e *RegenerateStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	eng := svcctx.EngineFrom(r.Context())
	writeJSON(w, http.StatusOK, RegenerateStatusResponse{
		Running:      eng.Running(),
		Regenerating: eng.Regenerating(),
		Cyclic:       eng.LastCyclic(),
	})
}

func (e *RegenerateStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show live regeneration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp RegenerateStatusResponse
			if err := client.Get(cmd.Context(), "/api/regenerate/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
