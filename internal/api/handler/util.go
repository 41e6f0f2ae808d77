package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/api/middleware"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/api/problem"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

// decodeJSON reads the request body into dst and reports a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "invalid request body")
		return false
	}
	return true
}

// actorID returns the authenticated chat user id.
func actorID(r *http.Request) (int64, bool) {
	id := middleware.UserIDFromContext(r.Context())
	return id, id != 0
}

// pathID parses the named chi URL parameter as an int64 id.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// RespondEngineError maps the engine's error taxonomy onto problem responses.
func RespondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		RespondError(w, r, http.StatusBadRequest, "request/invalid-amount", err.Error())
	case errors.Is(err, domain.ErrMalformedInput):
		RespondError(w, r, http.StatusBadRequest, "request/malformed-input", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		RespondError(w, r, http.StatusUnprocessableEntity, "ledger/insufficient-balance", err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		RespondError(w, r, http.StatusNotFound, "ledger/user-not-found", err.Error())
	case errors.Is(err, domain.ErrRequestNotFound):
		RespondError(w, r, http.StatusNotFound, "request/not-found", err.Error())
	case errors.Is(err, domain.ErrRequestNotPending):
		RespondError(w, r, http.StatusConflict, "request/not-pending", err.Error())
	default:
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "unexpected server error")
	}
}
