package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/snipd/snipd/internal/api"
	"github.com/snipd/snipd/internal/snippet"
	"github.com/snipd/snipd/internal/svcctx"
)

// GetSnippetEndpoint handles GET /api/snippets/{name}.
type GetSnippetEndpoint struct{}

func (e *GetSnippetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/snippets/{name}", e.handler
}

func (e *GetSnippetEndpoint) RequiresInit() bool { return true }

func (e *GetSnippetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	st := svcctx.StoreFrom(r.Context())
	s, err := st.Get(r.Context(), name)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (e *GetSnippetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Get a snippet by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp snippet.Snippet
			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/snippets/%s", args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
