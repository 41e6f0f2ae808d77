package handler

import (
	"net/http"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/service"
)

// UserHandler serves registration, profile, and the staff ledger operations.
type UserHandler struct {
	engine *service.Engine
}

func NewUserHandler(engine *service.Engine) *UserHandler {
	return &UserHandler{engine: engine}
}

// Register creates the ledger record for the authenticated chat user.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(r)
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", "missing user in auth context")
		return
	}

	var req struct {
		FullName string `json:"full_name"`
		Passport string `json:"passport"`
		Language string `json:"language"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FullName == "" {
		RespondError(w, r, http.StatusBadRequest, "request/malformed-input", "full_name is required")
		return
	}

	user, err := h.engine.RegisterUser(r.Context(), userID, req.FullName, req.Passport, req.Language)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, user)
}

// Me returns the authenticated user's ledger record.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(r)
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", "missing user in auth context")
		return
	}
	user, err := h.engine.GetUser(r.Context(), userID)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, user)
}

// SetLanguage switches the authenticated user's interface language.
func (h *UserHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(r)
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", "missing user in auth context")
		return
	}

	var req struct {
		Language string `json:"language"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.engine.SetLanguage(r.Context(), userID, req.Language)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, user)
}

// List returns every ledger record. Staff only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.engine.ListUsers(r.Context())
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, users)
}

// Get returns one ledger record by id. Staff only.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid user id")
		return
	}
	user, err := h.engine.GetUser(r.Context(), userID)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, user)
}

// UpdateProfile edits a user's name and/or passport. Staff only.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid user id")
		return
	}

	var req struct {
		FullName *string `json:"full_name"`
		Passport *string `json:"passport"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FullName == nil && req.Passport == nil {
		RespondError(w, r, http.StatusBadRequest, "request/malformed-input", "nothing to update")
		return
	}

	user, err := h.engine.UpdateProfile(r.Context(), userID, req.FullName, req.Passport)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, user)
}

// AdjustBalance applies a direct balance correction. Staff only.
func (h *UserHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid user id")
		return
	}

	var req struct {
		Amount string `json:"amount"`
		Mode   string `json:"mode"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}

	user, err := h.engine.AdjustBalance(r.Context(), userID, amount, domain.AdjustMode(req.Mode))
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, user)
}

// ToggleVerification flips a user's verified flag. Staff only.
func (h *UserHandler) ToggleVerification(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid user id")
		return
	}
	user, err := h.engine.ToggleVerification(r.Context(), userID)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, user)
}
