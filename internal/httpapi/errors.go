package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"wifidm/internal/manager"
	"wifidm/pkg/types"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeManagerError maps well-known manager errors to HTTP status codes.
func writeManagerError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case manager.IsRefused(err):
		status = http.StatusConflict
	case manager.IsUnknownIface(err):
		status = http.StatusNotFound
	case manager.IsHalError(err):
		status = http.StatusBadGateway
	case manager.IsStateError(err):
		status = http.StatusServiceUnavailable
	}
	if zlog != nil {
		z := zlog.Info().Int("status", status).Str("path", r.URL.Path)
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Err(err).Msg("request failed")
	}
	writeJSONError(w, status, err.Error())
}
