package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// RespondJSON writes payload as a JSON body. A nil payload writes the status only.
func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to encode response", "error", err, "status", status)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// RespondError writes {"error": message}.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, ErrorPayload{Error: message})
}

// RespondErrorCode writes the error payload used between services: the message plus the status code as a string.
func RespondErrorCode(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, ErrorPayload{Error: message, Code: strconv.Itoa(status)})
}

// ErrorPayload is the error body exchanged between services.
type ErrorPayload struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ParseID reads the positive {id} path parameter.
func ParseID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	return positiveID(w, logger, "ID", r.PathValue("id"))
}

// GetUserID returns the caller id stored by AuthMiddleware or the bearer middleware.
// A missing id is a 401, a malformed one a 400.
func GetUserID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	raw, _ := r.Context().Value(UserIDKey).(string)
	if raw == "" {
		RespondError(w, logger, http.StatusUnauthorized, "Unauthorized: Missing or invalid user ID")
		return 0, false
	}
	return positiveID(w, logger, "user ID", raw)
}

// ParseQueryID reads a required positive numeric query parameter.
func ParseQueryID(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string) (int64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("%s url parameter is required", key))
		return 0, false
	}
	return positiveID(w, logger, key, raw)
}

func positiveID(w http.ResponseWriter, logger *slog.Logger, name, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s: %s", name, raw))
		return 0, false
	}
	return id, true
}
