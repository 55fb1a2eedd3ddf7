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

// CreateSnippetEndpoint handles POST /api/snippets.
type CreateSnippetEndpoint struct{}

func (e *CreateSnippetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/snippets", e.handler
}

func (e *CreateSnippetEndpoint) RequiresInit() bool { return true }

func (e *CreateSnippetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req engine.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	eng := svcctx.EngineFrom(r.Context())
	s, err := eng.CreateSnippet(r.Context(), req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (e *CreateSnippetEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		content     string
		prompt      string
		model       string
		generateNow bool
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a snippet",
		Long: `Create a snippet. Passing --prompt makes it a generated snippet whose
content is produced by the completion provider; --content makes it static.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if content == "" && prompt == "" {
				return fmt.Errorf("one of --content or --prompt is required")
			}
			req := engine.CreateRequest{
				Name:        args[0],
				Content:     content,
				Generated:   prompt != "",
				Prompt:      prompt,
				Model:       model,
				GenerateNow: generateNow,
			}
			client := api.NewClient(getServerURL())
			var resp snippet.Snippet
			if err := client.Post(cmd.Context(), "/api/snippets", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Static snippet content")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Generation prompt (makes the snippet generated)")
	cmd.Flags().StringVar(&model, "model", "", "Model override for this snippet")
	cmd.Flags().BoolVar(&generateNow, "generate-now", false, "Generate synchronously before saving")
	return cmd
}
