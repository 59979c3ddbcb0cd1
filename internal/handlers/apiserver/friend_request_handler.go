package apiserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"reelchat/internal/services"
)

// FriendRequestHandler handles HTTP requests related to friend requests.
type FriendRequestHandler struct {
	ledger services.FriendRequestService
	users  services.UserService
}

// NewFriendRequestHandler creates a new FriendRequestHandler.
func NewFriendRequestHandler(ledger services.FriendRequestService, users services.UserService) *FriendRequestHandler {
	return &FriendRequestHandler{ledger: ledger, users: users}
}

// SendFriendRequestPayload defines the expected JSON body for sending a friend request.
type SendFriendRequestPayload struct {
	RecipientID string `json:"recipientId"`
}

// SendFriendRequestHandler handles POST /api/v1/friend-requests
func (h *FriendRequestHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var payload SendFriendRequestPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	recipientID := strings.TrimSpace(payload.RecipientID)
	if recipientID == "" {
		writeJSONError(w, "recipientId is required", "invalid_body", http.StatusBadRequest)
		return
	}
	if recipientID == userID {
		writeServiceError(w, r, services.ErrInvalidParticipants)
		return
	}

	from, err := h.users.GetSnapshot(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	to, err := h.users.GetSnapshot(r.Context(), recipientID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	result, err := h.ledger.SendFriendRequest(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := http.StatusCreated
	if result.Outcome == services.SendOutcomeAutoAccepted {
		status = http.StatusOK
	}
	writeJSONResponse(w, status, result)
}

// AcceptFriendRequestHandler handles POST /api/v1/friend-requests/{requestID}/accept
func (h *FriendRequestHandler) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	request, err := h.ledger.GetRequest(r.Context(), mux.Vars(r)["requestID"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if request.ToID != userID {
		writeServiceError(w, r, services.ErrNotRequestRecipient)
		return
	}

	to, err := h.users.GetSnapshot(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// A deleted sender account still leaves a usable snapshot on the request.
	from, err := h.users.GetSnapshot(r.Context(), request.FromID)
	if errors.Is(err, services.ErrUserNotFound) {
		from, err = request.Sender(), nil
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	result, err := h.ledger.AcceptFriendRequest(r.Context(), request.ID, from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

// RejectFriendRequestHandler handles POST /api/v1/friend-requests/{requestID}/reject
func (h *FriendRequestHandler) RejectFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.ledger.RejectFriendRequest(r.Context(), mux.Vars(r)["requestID"], userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelFriendRequestHandler handles DELETE /api/v1/friend-requests/{requestID}
func (h *FriendRequestHandler) CancelFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.ledger.CancelFriendRequest(r.Context(), mux.Vars(r)["requestID"], userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetIncomingRequestsHandler handles GET /api/v1/friend-requests/incoming
func (h *FriendRequestHandler) GetIncomingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	requests, err := h.ledger.ListIncoming(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, requests)
}

// GetOutgoingRequestsHandler handles GET /api/v1/friend-requests/outgoing
func (h *FriendRequestHandler) GetOutgoingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	requests, err := h.ledger.ListOutgoing(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, requests)
}
