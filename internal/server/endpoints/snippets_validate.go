package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/snipd/snipd/internal/api"
	"github.com/snipd/snipd/internal/engine"
	"github.com/snipd/snipd/internal/snippet"
	"github.com/snipd/snipd/internal/store"
	"github.com/snipd/snipd/internal/svcctx"
)

// ValidateSnippetRequest carries the draft fields to validate. Omitted
// fields fall back to the stored snippet; for a new name the draft stands
// alone.
type ValidateSnippetRequest struct {
	Content   *string `json:"content,omitempty"`
	Generated *bool   `json:"generated,omitempty"`
	Prompt    *string `json:"prompt,omitempty"`
}

// ValidateSnippetEndpoint handles POST /api/snippets/{name}/validate.
type ValidateSnippetEndpoint struct{}

func (e *ValidateSnippetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/snippets/{name}/validate", e.handler
}

func (e *ValidateSnippetEndpoint) RequiresInit() bool { return true }

func (e *ValidateSnippetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := snippet.ValidateName(name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ValidateSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	draft, err := st.Get(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		draft = snippet.New(name)
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.Generated != nil {
		draft.Generated = *req.Generated
	}
	if req.Content != nil {
		draft.Content = *req.Content
	}
	if req.Prompt != nil {
		draft.Prompt = *req.Prompt
	}

	eng := svcctx.EngineFrom(r.Context())
	result, err := eng.ValidateDraft(r.Context(), draft)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *ValidateSnippetEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		content string
		prompt  string
	)
	cmd := &cobra.Command{
		Use:   "validate <name>",
		Short: "Check a snippet edit for cycles and missing references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ValidateSnippetRequest{}
			if cmd.Flags().Changed("content") {
				req.Content = &content
			}
			if cmd.Flags().Changed("prompt") {
				req.Prompt = &prompt
				generated := true
				req.Generated = &generated
			}

			client := api.NewClient(getServerURL())
			var resp engine.ValidationResult
			if err := client.Post(cmd.Context(), fmt.Sprintf("/api/snippets/%s/validate", args[0]), req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Draft static content")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Draft generation prompt")
	return cmd
}
