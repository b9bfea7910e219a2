package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"wastelog/internal/core"
)

type errorBody struct {
	Detail string `json:"detail"`
}

var okBody = map[string]bool{"ok": true}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encode response failed", "error", err)
	}
}

// respondError maps domain errors onto client statuses; anything unknown is
// a server error.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrEmptyPatch):
		respondJSON(w, http.StatusBadRequest, errorBody{Detail: "No fields to update"})
	case errors.Is(err, core.ErrConflict):
		respondJSON(w, http.StatusConflict, errorBody{Detail: "Name already exists"})
	case errors.Is(err, core.ErrReference):
		respondJSON(w, http.StatusBadRequest, errorBody{Detail: "Referenced record does not exist"})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"url", r.URL.Path)
		respondJSON(w, http.StatusInternalServerError, errorBody{Detail: "Internal server error"})
	}
}

func badRequest(w http.ResponseWriter, detail string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Detail: detail})
}

// decodeJSON decodes a request body, rejecting unparseable payloads.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// dateQuery parses a named YYYY-MM-DD query parameter; ok is false when the
// parameter is absent.
func dateQuery(r *http.Request, name string) (core.Date, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return core.Date{}, false, nil
	}
	d, err := core.ParseDate(raw)
	return d, true, err
}
