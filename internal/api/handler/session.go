package handler

import (
	"errors"
	"net/http"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/session"
)

// SessionHandler exposes the conversational state store to the session
// controller. Staff-gated: only the bot front end and operators touch it.
type SessionHandler struct {
	sessions session.Manager
}

func NewSessionHandler(sessions session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Get returns the live session for a chat user, or 404 if it expired.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid user id")
		return
	}
	s, err := h.sessions.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			RespondError(w, r, http.StatusNotFound, "session/not-found", "no live session for user")
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "session/load-failed", "failed to load session")
		return
	}
	RespondJSON(w, http.StatusOK, s)
}

// Put replaces the session for a chat user.
func (h *SessionHandler) Put(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid user id")
		return
	}

	var s session.Session
	if !decodeJSON(w, r, &s) {
		return
	}
	if !s.State.Valid() {
		RespondError(w, r, http.StatusBadRequest, "session/invalid-state", "unknown session state")
		return
	}
	s.UserID = userID

	if err := h.sessions.Put(r.Context(), &s); err != nil {
		RespondError(w, r, http.StatusInternalServerError, "session/store-failed", "failed to store session")
		return
	}
	RespondJSON(w, http.StatusOK, s)
}

// Delete clears the session for a chat user.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid user id")
		return
	}
	if err := h.sessions.Clear(r.Context(), userID); err != nil {
		RespondError(w, r, http.StatusInternalServerError, "session/clear-failed", "failed to clear session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
