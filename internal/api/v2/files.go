package api

import (
	"net/http"

	"github.com/hashicorp-forge/strongbox/internal/server"
	"github.com/hashicorp-forge/strongbox/pkg/box"
)

// FilesHandler serves the file resource surface:
//
//	GET    /api/v2/files/{id}  fetch a file
//	PUT    /api/v2/files/{id}  update a file
//	DELETE /api/v2/files/{id}  delete a file
func FilesHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}
		principal := requestPrincipal(r)

		id, sub, err := parseResourceIDFromURL(r.URL.Path, "files")
		if err != nil || sub != "" {
			srv.Logger.Warn("invalid file URL", append([]any{"error", err}, logArgs...)...)
			http.Error(w, "Invalid URL path", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case "GET":
			item, err := srv.Box.GetItem(r.Context(), principal, id)
			if err != nil {
				srv.Logger.Warn("error getting file",
					append([]any{"error", err, "file", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			respondResource(w, srv.Logger, http.StatusOK, item)

		case "PUT":
			patch, err := decodeResource(r, box.TypeFile)
			if err != nil {
				srv.Logger.Warn("error decoding file update",
					append([]any{"error", err, "file", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			item, err := srv.Box.UpdateItem(r.Context(), principal, id, patch)
			if err != nil {
				srv.Logger.Warn("error updating file",
					append([]any{"error", err, "file", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			respondResource(w, srv.Logger, http.StatusOK, item)

		case "DELETE":
			if err := srv.Box.DeleteItem(r.Context(), principal, id); err != nil {
				srv.Logger.Warn("error deleting file",
					append([]any{"error", err, "file", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
