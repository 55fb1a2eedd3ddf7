package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snipd/snipd/internal/api"
	"github.com/snipd/snipd/internal/svcctx"
)

// ResolveRequest is the request body for resolving references in text.
type ResolveRequest struct {
	Text string `json:"text"`
}

// ResolveResponse carries the fully substituted text.
type ResolveResponse struct {
	Resolved string `json:"resolved"`
}

// ResolveEndpoint handles POST /api/resolve. Message submission uses it to
// expand @references before sending a prompt.
type ResolveEndpoint struct{}

func (e *ResolveEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/resolve", e.handler
}

func (e *ResolveEndpoint) RequiresInit() bool { return true }

func (e *ResolveEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	eng := svcctx.EngineFrom(r.Context())
	resolved, err := eng.ResolveText(r.Context(), req.Text)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResolveResponse{Resolved: resolved})
}

func (e *ResolveEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <text>",
		Short: "Expand @references in text",
		Long: `Expand every @reference in the given text against the snippet
collection, exactly as message submission would.

Examples:
  snipd api resolve "summarize @notes"
  snipd api resolve "@greeting, @topic"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ResolveResponse
			req := ResolveRequest{Text: strings.Join(args, " ")}
			if err := client.Post(cmd.Context(), "/api/resolve", req, &resp); err != nil {
				return err
			}
			fmt.Println(resp.Resolved)
			return nil
		},
	}
}
