// Package http exposes the engine over a chi router: session lifecycle,
// question browsing and the explanation cache.
package http

import (
	"encoding/json"
	"errors"
	nethttp "net/http"

	"github.com/perpractico/per-engine/internal/exam"
	"github.com/perpractico/per-engine/internal/explain"
	"github.com/perpractico/per-engine/internal/session"
)

func writeJSON(w nethttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes. Anything unknown is
// a 500 with a generic body so internals never leak.
func writeError(w nethttp.ResponseWriter, err error) {
	var insufficient *exam.InsufficientPoolError
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, explain.ErrNoExplanation):
		nethttp.Error(w, err.Error(), nethttp.StatusNotFound)
	case errors.Is(err, session.ErrInvalidAnswer):
		nethttp.Error(w, err.Error(), nethttp.StatusBadRequest)
	case errors.As(err, &insufficient):
		writeJSON(w, nethttp.StatusConflict, map[string]any{
			"error":     insufficient.Error(),
			"topic_id":  insufficient.TopicID,
			"available": insufficient.Available,
			"required":  insufficient.Required,
		})
	case errors.Is(err, session.ErrSessionConflict),
		errors.Is(err, session.ErrNotInProgress),
		errors.Is(err, session.ErrNotPaused),
		errors.Is(err, session.ErrTerminal):
		nethttp.Error(w, err.Error(), nethttp.StatusConflict)
	case errors.Is(err, explain.ErrGeneration):
		nethttp.Error(w, err.Error(), nethttp.StatusBadGateway)
	default:
		nethttp.Error(w, "internal error", nethttp.StatusInternalServerError)
	}
}
