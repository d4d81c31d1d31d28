package httputils

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"tush00nka/filestash/api/response"
	"tush00nka/filestash/internal/apperr"
)

func ResponseError(w http.ResponseWriter, errorCode int, errorMessage string) {
	ResponseJSON(w, errorCode, response.ErrorResponse{
		Message: errorMessage,
	})
}

// ResponseAppError writes err with the status of its apperr kind. Details of
// unexpected errors are logged and not sent to the client.
func ResponseAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusInsufficientStorage {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		ResponseError(w, status, http.StatusText(status))
		return
	}
	ResponseError(w, status, err.Error())
}

func ResponseJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
