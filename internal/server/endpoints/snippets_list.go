package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/snipd/snipd/internal/api"
	"github.com/snipd/snipd/internal/snippet"
	"github.com/snipd/snipd/internal/svcctx"
)

// ListSnippetsResponse is the response for listing snippets.
type ListSnippetsResponse struct {
	Snippets []*snippet.Snippet `json:"snippets"`
	Count    int                `json:"count"`
}

// ListSnippetsEndpoint handles GET /api/snippets.
type ListSnippetsEndpoint struct{}

func (e *ListSnippetsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/snippets", e.handler
}

func (e *ListSnippetsEndpoint) RequiresInit() bool { return true }

func (e *ListSnippetsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	snips, err := st.LoadAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Filter to dirty snippets when requested.
	if r.URL.Query().Get("dirty") == "true" {
		var dirty []*snippet.Snippet
		for _, s := range snips {
			if s.Dirty {
				dirty = append(dirty, s)
			}
		}
		snips = dirty
	}

	writeJSON(w, http.StatusOK, ListSnippetsResponse{Snippets: snips, Count: len(snips)})
}

func (e *ListSnippetsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var dirtyOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all snippets",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/snippets"
			if dirtyOnly {
				path += "?dirty=true"
			}
			client := api.NewClient(getServerURL())
			var resp ListSnippetsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&dirtyOnly, "dirty", false, "Only show snippets pending regeneration")
	return cmd
}
