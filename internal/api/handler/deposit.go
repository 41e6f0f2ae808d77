package handler

import (
	"net/http"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/service"
)

// DepositHandler serves deposit request submission and staff decisions.
type DepositHandler struct {
	engine *service.Engine
}

func NewDepositHandler(engine *service.Engine) *DepositHandler {
	return &DepositHandler{engine: engine}
}

// Create submits a deposit request for the authenticated user. The amount
// arrives as the raw string the user typed in chat.
func (h *DepositHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(r)
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", "missing user in auth context")
		return
	}

	var req struct {
		Amount string `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}

	created, err := h.engine.CreateDepositRequest(r.Context(), userID, amount)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, created)
}

// List returns deposit requests, filterable by ?status=. Staff only.
func (h *DepositHandler) List(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.engine.ListDeposits(r.Context(), domain.Status(r.URL.Query().Get("status")))
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, reqs)
}

// Approve credits the deposit to the user's balance. Staff only.
func (h *DepositHandler) Approve(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid request id")
		return
	}
	req, err := h.engine.ApproveDeposit(r.Context(), requestID)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, req)
}

// Reject marks the deposit rejected. Staff only.
func (h *DepositHandler) Reject(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid request id")
		return
	}
	req, err := h.engine.RejectDeposit(r.Context(), requestID)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, req)
}
