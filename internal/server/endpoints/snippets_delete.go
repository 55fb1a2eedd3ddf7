package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/snipd/snipd/internal/api"
	"github.com/snipd/snipd/internal/svcctx"
)

// DeleteSnippetResponse is the response for deleting a snippet.
type DeleteSnippetResponse struct {
	Deleted string `json:"deleted"`
}

// DeleteSnippetEndpoint handles DELETE /api/snippets/{name}.
type DeleteSnippetEndpoint struct{}

func (e *DeleteSnippetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/snippets/{name}", e.handler
}

func (e *DeleteSnippetEndpoint) RequiresInit() bool { return true }

func (e *DeleteSnippetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	eng := svcctx.EngineFrom(r.Context())
	if err := eng.DeleteSnippet(r.Context(), name); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteSnippetResponse{Deleted: name})
}

func (e *DeleteSnippetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), fmt.Sprintf("/api/snippets/%s", args[0])); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}
