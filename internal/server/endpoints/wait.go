package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/snipd/snipd/internal/api"
	"github.com/snipd/snipd/internal/snippet"
	"github.com/snipd/snipd/internal/svcctx"
)

// WaitRequest names the snippets to wait on.
type WaitRequest struct {
	Names          []string `json:"names"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty"`
}

// WaitResponse is returned once every named snippet has settled.
type WaitResponse struct {
	Settled []string `json:"settled"`
}

// WaitEndpoint handles POST /api/wait. Submission flows call it before
// resolving a prompt so they never send stale snippet content.
type WaitEndpoint struct{}

func (e *WaitEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/wait", e.handler
}

func (e *WaitEndpoint) RequiresInit() bool { return true }

func (e *WaitEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req WaitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Names) == 0 {
		writeError(w, http.StatusBadRequest, "names is required")
		return
	}

	gate := svcctx.GateFrom(r.Context())
	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	if err := gate.WaitForTimeout(r.Context(), req.Names, timeout); err != nil {
		var missing *snippet.MissingError
		switch {
		case errors.As(err, &missing):
			writeError(w, http.StatusNotFound, err.Error())
		case strings.Contains(err.Error(), "timed out"):
			writeError(w, http.StatusGatewayTimeout, err.Error())
		default:
			// Failed or cyclic regeneration rejects the wait.
			writeError(w, http.StatusConflict, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, WaitResponse{Settled: req.Names})
}

func (e *WaitEndpoint) Command(getServerURL func() string) *cobra.Command {
	var timeoutSeconds int
	cmd := &cobra.Command{
		Use:   "wait <name> [name...]",
		Short: "Block until snippets finish regenerating",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp WaitResponse
			req := WaitRequest{Names: args, TimeoutSeconds: timeoutSeconds}
			if err := client.Post(cmd.Context(), "/api/wait", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 0, "Wait timeout in seconds (0 uses the server default)")
	return cmd
}
