package handler

import (
	"net/http"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/service"
)

// StaffHandler serves the staff roster. Staff only.
type StaffHandler struct {
	engine *service.Engine
}

func NewStaffHandler(engine *service.Engine) *StaffHandler {
	return &StaffHandler{engine: engine}
}

// List returns the persisted roster.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.engine.ListStaff(r.Context())
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, members)
}

// Add puts a user on the roster. Adding an existing member is a no-op.
func (h *StaffHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   int64  `json:"user_id"`
		FullName string `json:"full_name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		RespondError(w, r, http.StatusBadRequest, "request/malformed-input", "user_id must be a positive chat id")
		return
	}

	if err := h.engine.AddStaff(r.Context(), req.UserID, req.FullName); err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, map[string]int64{"user_id": req.UserID})
}
