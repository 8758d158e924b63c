package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"praktika.org/internal/account"
	"praktika.org/internal/internship"
	"praktika.org/internal/session"
	"praktika.org/internal/upload"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError always emits the {success,message} envelope the frontend
// expects, plus the request id for correlation.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"success":    false,
		"message":    msg,
		"request_id": RequestIDFromContext(r.Context()),
	})
}

func writeSuccess(w http.ResponseWriter, msg string, extra map[string]any) {
	body := map[string]any{
		"success": true,
		"message": msg,
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeDomainError maps service errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, account.ErrInvalidInput), errors.Is(err, internship.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrDuplicate):
		writeError(w, r, http.StatusBadRequest, "register number or email already registered")
	case errors.Is(err, account.ErrNotFound), errors.Is(err, internship.ErrNotFound), errors.Is(err, upload.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, account.ErrBadCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid password")
	case errors.Is(err, session.ErrInvalidSession):
		writeError(w, r, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, upload.ErrUnsupportedType):
		writeError(w, r, http.StatusBadRequest, "only PDF and Word documents are accepted")
	case errors.Is(err, upload.ErrTooLarge):
		writeError(w, r, http.StatusBadRequest, "file exceeds the 10 MB limit")
	case errors.Is(err, upload.ErrBadIdentity):
		writeError(w, r, http.StatusBadRequest, "invalid identity")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
