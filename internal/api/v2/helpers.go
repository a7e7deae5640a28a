// Package api implements the versioned HTTP surface over the box service.
package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/strongbox/pkg/box"
)

// principalHeader carries the acting principal's login. Requests without it
// act as the system principal.
const principalHeader = "X-Strongbox-User"

// maxRequestBody bounds request payload size.
const maxRequestBody = 1 << 20

// requestPrincipal returns the principal the request acts as: basic auth
// user first, then the principal header, then "system".
func requestPrincipal(r *http.Request) string {
	if user, _, ok := r.BasicAuth(); ok && user != "" {
		return user
	}
	if user := r.Header.Get(principalHeader); user != "" {
		return user
	}
	return "system"
}

// parseResourceIDFromURL parses a URL path with the format
// "/api/v2/{apiPath}/{resourceID}" and returns the resource ID, plus the
// trailing sub-resource segment if one is present.
func parseResourceIDFromURL(url, apiPath string) (id, sub string, err error) {
	url = strings.TrimPrefix(url, fmt.Sprintf("/api/v2/%s", apiPath))

	var resultPath []string
	for _, v := range strings.Split(url, "/") {
		if v != "" {
			resultPath = append(resultPath, v)
		}
	}
	switch len(resultPath) {
	case 1:
		return resultPath[0], "", nil
	case 2:
		return resultPath[0], resultPath[1], nil
	default:
		return "", "", fmt.Errorf("invalid URL path")
	}
}

// decodeResource reads and decodes the request body as a resource of
// expectedType.
func decodeResource(r *http.Request, expectedType string) (box.Resource, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return nil, &box.ParseError{Err: err}
	}
	return box.DefaultCodec.Decode(data, expectedType)
}

// respondResource writes a resource as JSON with the given status.
func respondResource(w http.ResponseWriter, log hclog.Logger, status int, res box.Resource) {
	data, err := box.DefaultCodec.Encode(res)
	if err != nil {
		log.Error("error encoding response", "error", err)
		respondError(w, log, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Error("error writing response", "error", err)
	}
}

// respondError writes err as an error resource with its mapped status.
func respondError(w http.ResponseWriter, log hclog.Logger, err error) {
	status := box.StatusFor(err)
	data, encErr := box.DefaultCodec.Encode(box.NewErrorResource(err))
	if encErr != nil {
		log.Error("error encoding error response", "error", encErr)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Error("error writing error response", "error", err)
	}
}

// pageParams reads limit and offset query parameters, zero when absent or
// unparseable.
func pageParams(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	return limit, offset
}
