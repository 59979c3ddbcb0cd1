package apiserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"reelchat/internal/auth"
	"reelchat/internal/middleware"
	"reelchat/internal/services"
)

// ErrorResponse 是 API 错误响应的通用结构体。Code is stable and
// machine-readable; Error is for humans.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSONResponse 是一个辅助函数，用于发送 JSON 响应。
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encode json response", "err", err)
		}
	}
}

// writeJSONError 是一个辅助函数，用于发送 JSON 格式的错误响应。
func writeJSONError(w http.ResponseWriter, message, code string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Error: message, Code: code})
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var serviceErrors = []errorMapping{
	{services.ErrInvalidParticipants, http.StatusBadRequest, "invalid_participants"},
	{services.ErrAlreadyFriends, http.StatusConflict, "already_friends"},
	{services.ErrRequestAlreadyPending, http.StatusConflict, "request_already_pending"},
	{services.ErrRequestNotFound, http.StatusNotFound, "request_not_found"},
	{services.ErrNotRequestSender, http.StatusForbidden, "not_request_sender"},
	{services.ErrNotRequestRecipient, http.StatusForbidden, "not_request_recipient"},
	{services.ErrNotRoomParticipant, http.StatusForbidden, "not_room_participant"},
	{services.ErrNotFriends, http.StatusConflict, "not_friends"},
	{services.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{services.ErrRoomNotFound, http.StatusNotFound, "room_not_found"},
	{services.ErrEmptyMessage, http.StatusBadRequest, "empty_message"},
	{services.ErrInvalidReel, http.StatusBadRequest, "invalid_reel"},
	{services.ErrInvalidProfile, http.StatusBadRequest, "invalid_profile"},
	{services.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{auth.ErrPasswordTooShort, http.StatusBadRequest, "password_too_short"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
	{services.ErrUserAlreadyExists, http.StatusConflict, "user_already_exists"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{services.ErrTransactionFailed, http.StatusServiceUnavailable, "transaction_failed"},
}

// writeServiceError maps a service error to its status and code. Unknown
// errors are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
			}
			writeJSONError(w, m.err.Error(), m.code, m.status)
			return
		}
	}
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeJSONError(w, "internal server error", "internal", http.StatusInternalServerError)
}

// decodeJSON reads the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, "invalid request body", "invalid_body", http.StatusBadRequest)
		return false
	}
	return true
}

// callerID returns the authenticated user id or writes a 401.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthenticated", "unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}
