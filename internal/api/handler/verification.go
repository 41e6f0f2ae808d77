package handler

import (
	"net/http"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/service"
)

// VerificationHandler serves identity verification submission and decisions.
type VerificationHandler struct {
	engine *service.Engine
}

func NewVerificationHandler(engine *service.Engine) *VerificationHandler {
	return &VerificationHandler{engine: engine}
}

// Create submits a verification request carrying the chat transport's handle
// for the document photo.
func (h *VerificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(r)
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", "missing user in auth context")
		return
	}

	var req struct {
		PhotoFileID string `json:"photo_file_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.engine.CreateVerificationRequest(r.Context(), userID, req.PhotoFileID)
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, created)
}

// List returns verification requests, filterable by ?status=. Staff only.
func (h *VerificationHandler) List(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.engine.ListVerifications(r.Context(), domain.Status(r.URL.Query().Get("status")))
	if err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, reqs)
}

// Approve marks the user verified and removes the request. Staff only.
func (h *VerificationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid request id")
		return
	}
	if err := h.engine.ApproveVerification(r.Context(), requestID); err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusApproved)})
}

// Reject removes the request so the user can resubmit. Staff only.
func (h *VerificationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid request id")
		return
	}
	if err := h.engine.RejectVerification(r.Context(), requestID); err != nil {
		RespondEngineError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusRejected)})
}
