package handlers

import (
	"context"
	"net/http"

	"github.com/atreides/aniwatch/internal/search"
)

type searchProvider interface {
	Search(ctx context.Context, keyword string) []search.Result
}

// SearchHandler serves POST /search.
type SearchHandler struct {
	providers searchProvider
}

func NewSearchHandler(providers searchProvider) *SearchHandler {
	return &SearchHandler{providers: providers}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(r, &body); err != nil || body.Query == "" {
		writeJSONError(w, http.StatusBadRequest, "query is required")
		return
	}
	results := h.providers.Search(r.Context(), body.Query)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
