package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/service"
)

// WithdrawalHandler serves withdrawal request submission and staff decisions.
type WithdrawalHandler struct {
	engine *service.Engine
}

func NewWithdrawalHandler(engine *service.Engine) *WithdrawalHandler {
	return &WithdrawalHandler{engine: engine}
}

// Create submits a withdrawal request for the authenticated user. The bot
// front end forwards the raw chat message in "text" ("details, amount");
// structured clients send "details" and "amount" separately.
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(r)
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", "missing user in auth context")
		return
	}

	var req struct {
		Text    string `json:"text"`
		Details string `json:"details"`
		Amount  string `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var details string
	var amount decimal.Decimal
	var err error
	if req.Text != "" {
		details, amount, err = domain.ParseWithdrawalInput(req.Text)
	} else {
		details = req.Details
		amount, err = domain.ParseAmount(req.Amount)
	}
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}

	created, err := h.engine.CreateWithdrawalRequest(r.Context(), userID, details, amount)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, created)
}

// List returns withdrawal requests, filterable by ?status=. Staff only.
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.engine.ListWithdrawals(r.Context(), domain.Status(r.URL.Query().Get("status")))
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, reqs)
}

// Approve pays out the escrowed amount. Staff only.
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid request id")
		return
	}
	req, err := h.engine.ApproveWithdrawal(r.Context(), requestID)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, req)
}

// Reject refunds the escrowed amount to the balance. Staff only.
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid request id")
		return
	}
	req, err := h.engine.RejectWithdrawal(r.Context(), requestID)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, req)
}
