package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/snipd/snipd/internal/api"
	"github.com/snipd/snipd/internal/engine"
	"github.com/snipd/snipd/internal/snippet"
	"github.com/snipd/snipd/internal/svcctx"
)

// UpdateSnippetEndpoint handles PUT /api/snippets/{name}.
type UpdateSnippetEndpoint struct{}

func (e *UpdateSnippetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/snippets/{name}", e.handler
}

func (e *UpdateSnippetEndpoint) RequiresInit() bool { return true }

func (e *UpdateSnippetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req engine.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	eng := svcctx.EngineFrom(r.Context())
	s, err := eng.UpdateSnippet(r.Context(), name, req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (e *UpdateSnippetEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		newName string
		content string
		prompt  string
		model   string
	)
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Update a snippet",
		Long: `Update a snippet. Only the provided flags are changed; dependents of
the snippet are marked stale and regenerated in the background.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := engine.UpdateRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &newName
			}
			if cmd.Flags().Changed("content") {
				req.Content = &content
			}
			if cmd.Flags().Changed("prompt") {
				req.Prompt = &prompt
			}
			if cmd.Flags().Changed("model") {
				req.Model = &model
			}

			client := api.NewClient(getServerURL())
			var resp snippet.Snippet
			if err := client.Put(cmd.Context(), fmt.Sprintf("/api/snippets/%s", args[0]), req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&newName, "name", "", "Rename the snippet")
	cmd.Flags().StringVar(&content, "content", "", "New static content")
	cmd.Flags().StringVar(&prompt, "prompt", "", "New generation prompt")
	cmd.Flags().StringVar(&model, "model", "", "New model override")
	return cmd
}
