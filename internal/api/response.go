package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/oakline/taskconsole/internal/apperr"
	"github.com/oakline/taskconsole/internal/logging"
)

// errorEnvelope is the uniform error body: {success:false, message, errors?}.
type errorEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr is the single error-translating boundary: taxonomy kind → status
// code + envelope. Internal causes are logged, never sent to the client.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	if ae.Kind == apperr.KindInternal {
		logging.Error(r.Context(), "request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", ae.StatusCode()),
			zap.Error(err),
		)
	}
	writeJSON(w, ae.StatusCode(), errorEnvelope{
		Success: false,
		Message: ae.Message,
		Errors:  ae.Fields,
	})
}
