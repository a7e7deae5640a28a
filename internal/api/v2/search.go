package api

import (
	"net/http"

	"github.com/hashicorp-forge/strongbox/internal/server"
)

// SearchHandler serves GET /api/v2/search?query=term. Results are fully
// built item resources; limit, offset, and fields narrow the page.
func SearchHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}
		if r.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		query := r.URL.Query()
		term := query.Get("query")
		limit, offset := pageParams(r)

		coll, err := srv.Box.Search(
			r.Context(), requestPrincipal(r), term, limit, offset, query.Get("fields"))
		if err != nil {
			srv.Logger.Warn("error searching",
				append([]any{"error", err, "query", term}, logArgs...)...)
			respondError(w, srv.Logger, err)
			return
		}
		respondResource(w, srv.Logger, http.StatusOK, coll)
	})
}
