package api

import (
	"net/http"

	"github.com/hashicorp-forge/strongbox/internal/server"
	"github.com/hashicorp-forge/strongbox/pkg/box"
)

// FoldersHandler serves the folder resource surface:
//
//	POST   /api/v2/folders                      create a folder
//	GET    /api/v2/folders/{id}                 fetch a folder
//	PUT    /api/v2/folders/{id}                 update a folder
//	DELETE /api/v2/folders/{id}                 delete a folder and subtree
//	GET    /api/v2/folders/{id}/items           page of children
//	GET    /api/v2/folders/{id}/collaborations  collaborations on the folder
func FoldersHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}
		principal := requestPrincipal(r)

		if r.Method == "POST" && r.URL.Path == "/api/v2/folders" {
			createFolder(srv, w, r, principal, logArgs)
			return
		}

		id, sub, err := parseResourceIDFromURL(r.URL.Path, "folders")
		if err != nil {
			srv.Logger.Warn("invalid folder URL", append([]any{"error", err}, logArgs...)...)
			http.Error(w, "Invalid URL path", http.StatusBadRequest)
			return
		}

		switch sub {
		case "":
		case "items":
			if r.Method != "GET" {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			limit, offset := pageParams(r)
			coll, err := srv.Box.ListChildren(
				r.Context(), principal, id, limit, offset, r.URL.Query().Get("fields"))
			if err != nil {
				srv.Logger.Warn("error listing folder items",
					append([]any{"error", err, "folder", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			respondResource(w, srv.Logger, http.StatusOK, coll)
			return
		case "collaborations":
			if r.Method != "GET" {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			coll, err := srv.Box.ListCollaborations(r.Context(), principal, id)
			if err != nil {
				srv.Logger.Warn("error listing collaborations",
					append([]any{"error", err, "folder", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			respondResource(w, srv.Logger, http.StatusOK, coll)
			return
		default:
			http.Error(w, "Invalid URL path", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case "GET":
			item, err := srv.Box.GetItem(r.Context(), principal, id)
			if err != nil {
				srv.Logger.Warn("error getting folder",
					append([]any{"error", err, "folder", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			respondResource(w, srv.Logger, http.StatusOK, item)

		case "PUT":
			patch, err := decodeResource(r, box.TypeFolder)
			if err != nil {
				srv.Logger.Warn("error decoding folder update",
					append([]any{"error", err, "folder", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			item, err := srv.Box.UpdateItem(r.Context(), principal, id, patch)
			if err != nil {
				srv.Logger.Warn("error updating folder",
					append([]any{"error", err, "folder", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			respondResource(w, srv.Logger, http.StatusOK, item)

		case "DELETE":
			if err := srv.Box.DeleteItem(r.Context(), principal, id); err != nil {
				srv.Logger.Warn("error deleting folder",
					append([]any{"error", err, "folder", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// createFolder handles POST /api/v2/folders. The payload is a folder
// resource carrying the new name and a parent reference.
func createFolder(
	srv server.Server,
	w http.ResponseWriter,
	r *http.Request,
	principal string,
	logArgs []any,
) {
	req, err := decodeResource(r, box.TypeFolder)
	if err != nil {
		srv.Logger.Warn("error decoding folder create",
			append([]any{"error", err}, logArgs...)...)
		respondError(w, srv.Logger, err)
		return
	}

	parentID := ""
	if parent := req.Properties().ParentFolder(); parent != nil {
		parentID = parent.ID()
	}
	if parentID == "" {
		parentID = "0"
	}

	item, err := srv.Box.CreateFolder(r.Context(), principal, parentID, req.Properties().Name())
	if err != nil {
		srv.Logger.Warn("error creating folder",
			append([]any{"error", err, "parent", parentID}, logArgs...)...)
		respondError(w, srv.Logger, err)
		return
	}
	respondResource(w, srv.Logger, http.StatusCreated, item)
}
