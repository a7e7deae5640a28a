package api

import (
	"net/http"

	"github.com/hashicorp-forge/strongbox/internal/server"
	"github.com/hashicorp-forge/strongbox/pkg/box"
)

// CollaborationsHandler serves the collaboration resource surface:
//
//	POST   /api/v2/collaborations       grant a role on a folder
//	GET    /api/v2/collaborations/{id}  fetch a collaboration
//	PUT    /api/v2/collaborations/{id}  change a collaboration's role
//	DELETE /api/v2/collaborations/{id}  revoke a collaboration
//
// Collaboration ids are composite: they carry both the folder and the
// grant they address.
func CollaborationsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}
		principal := requestPrincipal(r)

		if r.Method == "POST" && r.URL.Path == "/api/v2/collaborations" {
			createCollaboration(srv, w, r, principal, logArgs)
			return
		}

		id, sub, err := parseResourceIDFromURL(r.URL.Path, "collaborations")
		if err != nil || sub != "" {
			srv.Logger.Warn("invalid collaboration URL",
				append([]any{"error", err}, logArgs...)...)
			http.Error(w, "Invalid URL path", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case "GET":
			collab, err := srv.Box.GetCollaboration(r.Context(), principal, id)
			if err != nil {
				srv.Logger.Warn("error getting collaboration",
					append([]any{"error", err, "collaboration", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			respondResource(w, srv.Logger, http.StatusOK, collab)

		case "PUT":
			patch, err := decodeResource(r, box.TypeCollaboration)
			if err != nil {
				srv.Logger.Warn("error decoding collaboration update",
					append([]any{"error", err, "collaboration", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			collab, err := srv.Box.UpdateCollaboration(
				r.Context(), principal, id, patch.Properties().GetString(box.FieldRole))
			if err != nil {
				srv.Logger.Warn("error updating collaboration",
					append([]any{"error", err, "collaboration", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			respondResource(w, srv.Logger, http.StatusOK, collab)

		case "DELETE":
			if err := srv.Box.DeleteCollaboration(r.Context(), principal, id); err != nil {
				srv.Logger.Warn("error deleting collaboration",
					append([]any{"error", err, "collaboration", id}, logArgs...)...)
				respondError(w, srv.Logger, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// createCollaboration handles POST /api/v2/collaborations. The payload is a
// collaboration resource carrying the folder, accessible_by principal, and
// role.
func createCollaboration(
	srv server.Server,
	w http.ResponseWriter,
	r *http.Request,
	principal string,
	logArgs []any,
) {
	req, err := decodeResource(r, box.TypeCollaboration)
	if err != nil {
		srv.Logger.Warn("error decoding collaboration create",
			append([]any{"error", err}, logArgs...)...)
		respondError(w, srv.Logger, err)
		return
	}
	props := req.Properties()

	folderID := ""
	if folder, ok := props.Get(box.FieldFolder).(box.Resource); ok {
		folderID = folder.Properties().ID()
	}
	accessibleBy := ""
	if party, ok := props.Get(box.FieldAccessibleBy).(box.Resource); ok {
		accessibleBy = party.Properties().ID()
	}

	collab, err := srv.Box.CreateCollaboration(
		r.Context(), principal, folderID, accessibleBy, props.GetString(box.FieldRole))
	if err != nil {
		srv.Logger.Warn("error creating collaboration",
			append([]any{"error", err, "folder", folderID}, logArgs...)...)
		respondError(w, srv.Logger, err)
		return
	}
	respondResource(w, srv.Logger, http.StatusCreated, collab)
}
