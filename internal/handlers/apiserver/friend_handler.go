package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"

	"reelchat/internal/models"
	"reelchat/internal/services"
)

// FriendHandler serves the caller's friend list.
type FriendHandler struct {
	friendships services.FriendshipService
	ledger      services.FriendRequestService
}

func NewFriendHandler(friendships services.FriendshipService, ledger services.FriendRequestService) *FriendHandler {
	return &FriendHandler{friendships: friendships, ledger: ledger}
}

// ListFriends handles GET /api/v1/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	friends, err := h.friendships.ListFriends(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// RemoveFriend handles DELETE /api/v1/friends/{userID}. Removing someone who
// is not a friend succeeds.
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.friendships.RemoveFriend(r.Context(), userID, mux.Vars(r)["userID"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PairStatusResponse reports the relationship between the caller and another user.
type PairStatusResponse struct {
	UserID string           `json:"userId"`
	Status models.PairState `json:"status"`
}

// PairStatus handles GET /api/v1/friends/{userID}/status
func (h *FriendHandler) PairStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	otherID := mux.Vars(r)["userID"]
	state, err := h.ledger.PairStatus(r.Context(), userID, otherID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, PairStatusResponse{UserID: otherID, Status: state})
}
