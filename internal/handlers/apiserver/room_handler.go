package apiserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"reelchat/internal/models"
	"reelchat/internal/services"
)

const defaultMessagePage = 50

// RoomHandler serves direct-message rooms and their messages.
type RoomHandler struct {
	rooms services.RoomService
	users services.UserService
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(rooms services.RoomService, users services.UserService) *RoomHandler {
	return &RoomHandler{rooms: rooms, users: users}
}

// DirectRoomRequest 是打开私聊房间的请求体。
type DirectRoomRequest struct {
	PeerID string `json:"peerId"`
}

// OpenDirectRoom handles POST /api/v1/rooms/direct. Calling it again for the
// same peer returns the same room.
func (h *RoomHandler) OpenDirectRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req DirectRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	peerID := strings.TrimSpace(req.PeerID)
	if peerID == "" || peerID == userID {
		writeServiceError(w, r, services.ErrInvalidParticipants)
		return
	}

	me, err := h.users.GetSnapshot(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	peer, err := h.users.GetSnapshot(r.Context(), peerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	room, err := h.rooms.GetOrCreateRoom(r.Context(), me, peer)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, room)
}

// ListRooms handles GET /api/v1/rooms
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	rooms, err := h.rooms.ListRooms(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, rooms)
}

// GetRoom handles GET /api/v1/rooms/{roomID}
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	room, err := h.rooms.GetRoomForUser(r.Context(), mux.Vars(r)["roomID"], userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, room)
}

// ListMessages handles GET /api/v1/rooms/{roomID}/messages?limit=&offset=
func (h *RoomHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", defaultMessagePage)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}
	messages, err := h.rooms.ListMessages(r.Context(), mux.Vars(r)["roomID"], userID, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, messages)
}

// PostMessageRequest 是发送文本消息的请求体。
type PostMessageRequest struct {
	Text string `json:"text"`
}

// PostMessage handles POST /api/v1/rooms/{roomID}/messages
func (h *RoomHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req PostMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sender, err := h.users.GetSnapshot(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	message, err := h.rooms.SendMessage(r.Context(), mux.Vars(r)["roomID"], sender, req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, message)
}

// ShareReelRequest 是分享短视频给好友的请求体。
type ShareReelRequest struct {
	FriendID string      `json:"friendId"`
	Reel     models.Reel `json:"reel"`
}

// ShareReel handles POST /api/v1/reels/share. The room with the friend is
// opened on first share.
func (h *RoomHandler) ShareReel(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req ShareReelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	friendID := strings.TrimSpace(req.FriendID)
	if friendID == "" || friendID == userID {
		writeServiceError(w, r, services.ErrInvalidParticipants)
		return
	}

	sender, err := h.users.GetSnapshot(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	friend, err := h.users.GetSnapshot(r.Context(), friendID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	message, err := h.rooms.ShareReel(r.Context(), sender, friend, req.Reel)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, message)
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeJSONError(w, "invalid "+name, "invalid_query", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
