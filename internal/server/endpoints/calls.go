package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/snipd/snipd/internal/api"
	"github.com/snipd/snipd/internal/history"
	"github.com/snipd/snipd/internal/svcctx"
)

// ListCallsResponse is the response for listing generation history.
type ListCallsResponse struct {
	Calls []*history.Call `json:"calls"`
	Count int             `json:"count"`
}

// ListCallsEndpoint handles GET /api/calls.
type ListCallsEndpoint struct{}

func (e *ListCallsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/calls", e.handler
}

func (e *ListCallsEndpoint) RequiresInit() bool { return true }

func (e *ListCallsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	calls := svcctx.CallsFrom(r.Context())
	if calls == nil {
		writeError(w, http.StatusServiceUnavailable, "call history not initialized")
		return
	}

	snippetName := r.URL.Query().Get("snippet")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	list, err := calls.ListCalls(r.Context(), snippetName, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListCallsResponse{Calls: list, Count: len(list)})
}

func (e *ListCallsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		snippetName string
		limit       int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent generation calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if snippetName != "" {
				params.Set("snippet", snippetName)
			}
			if limit > 0 {
				params.Set("limit", fmt.Sprintf("%d", limit))
			}
			path := "/api/calls"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}

			client := api.NewClient(getServerURL())
			var resp ListCallsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&snippetName, "snippet", "", "Filter by snippet name")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum calls to return")
	return cmd
}
