package apiserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelchat/internal/auth"
	"reelchat/internal/config"
	"reelchat/internal/handlers/apiserver"
	"reelchat/internal/models"
	"reelchat/internal/services"
	"reelchat/internal/storage/storagetest"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := storagetest.NewDB(t)
	cfg := config.Config{
		Auth: config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour},
		APIServer: config.APIServerConfig{CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}},
	}
	blacklist := auth.NewMemoryBlacklist()
	publisher := services.NopPublisher{}
	friendships := services.NewFriendshipService(db, publisher)
	svc := apiserver.Services{
		Auth:        services.NewAuthService(db, blacklist, cfg.Auth),
		Users:       services.NewUserService(db, friendships),
		Ledger:      services.NewFriendRequestService(db, publisher),
		Friendships: friendships,
		Rooms:       services.NewRoomService(db, publisher),
	}
	return &testAPI{t: t, handler: apiserver.NewRouter(svc, cfg, blacklist)}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type session struct {
	token string
	user  *models.User
}

func (a *testAPI) signUp(email, name string) session {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/auth/register", "", apiserver.RegisterRequest{Email: email, DisplayName: name, Password: "password123"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/auth/login", "", apiserver.LoginRequest{Email: email, Password: "password123"})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[apiserver.LoginResponse](a.t, rec)
	return session{token: resp.Token, user: resp.User}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apiserver.ErrorResponse](t, rec).Code
}

func TestFriendshipFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	ann := api.signUp("ann@example.com", "Ann")
	bob := api.signUp("bob@example.com", "Bob")

	rec := api.do(http.MethodPost, "/api/v1/friend-requests", ann.token, apiserver.SendFriendRequestPayload{RecipientID: bob.user.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sent := decode[services.SendResult](t, rec)
	assert.Equal(t, services.SendOutcomeCreated, sent.Outcome)

	rec = api.do(http.MethodPost, "/api/v1/friend-requests", ann.token, apiserver.SendFriendRequestPayload{RecipientID: bob.user.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "request_already_pending", errorCode(t, rec))

	rec = api.do(http.MethodGet, "/api/v1/friend-requests/incoming", bob.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	incoming := decode[[]models.FriendRequest](t, rec)
	require.Len(t, incoming, 1)
	assert.Equal(t, sent.Request.ID, incoming[0].ID)

	rec = api.do(http.MethodGet, "/api/v1/friends/"+bob.user.ID+"/status", ann.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PairStatePendingAtoB, decode[apiserver.PairStatusResponse](t, rec).Status)

	// Only the recipient may accept.
	rec = api.do(http.MethodPost, "/api/v1/friend-requests/"+sent.Request.ID+"/accept", ann.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/friend-requests/"+sent.Request.ID+"/accept", bob.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decode[services.AcceptResult](t, rec)
	assert.True(t, accepted.RoomCreated)
	wantRoomID, err := models.DirectRoomID(ann.user.ID, bob.user.ID)
	require.NoError(t, err)
	assert.Equal(t, wantRoomID, accepted.Room.ID)

	rec = api.do(http.MethodPost, "/api/v1/friend-requests/"+sent.Request.ID+"/accept", bob.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "request_not_found", errorCode(t, rec))

	rec = api.do(http.MethodGet, "/api/v1/friends", ann.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	friends := decode[[]models.FriendEdge](t, rec)
	require.Len(t, friends, 1)
	assert.Equal(t, bob.user.ID, friends[0].FriendID)
	assert.Equal(t, "Bob", friends[0].DisplayName)

	rec = api.do(http.MethodPost, "/api/v1/friend-requests", bob.token, apiserver.SendFriendRequestPayload{RecipientID: ann.user.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_friends", errorCode(t, rec))

	rec = api.do(http.MethodDelete, "/api/v1/friends/"+ann.user.ID, bob.token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodDelete, "/api/v1/friends/"+ann.user.ID, bob.token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/rooms/"+wantRoomID, ann.token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCrossedRequestIsAutoAccepted(t *testing.T) {
	api := newTestAPI(t)
	ann := api.signUp("ann@example.com", "Ann")
	bob := api.signUp("bob@example.com", "Bob")

	rec := api.do(http.MethodPost, "/api/v1/friend-requests", ann.token, apiserver.SendFriendRequestPayload{RecipientID: bob.user.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/friend-requests", bob.token, apiserver.SendFriendRequestPayload{RecipientID: ann.user.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[services.SendResult](t, rec)
	assert.Equal(t, services.SendOutcomeAutoAccepted, result.Outcome)
	require.NotNil(t, result.Room)

	rec = api.do(http.MethodGet, "/api/v1/friends/"+ann.user.ID+"/status", bob.token, nil)
	assert.Equal(t, models.PairStateFriends, decode[apiserver.PairStatusResponse](t, rec).Status)
}

func TestRejectAndCancel(t *testing.T) {
	api := newTestAPI(t)
	ann := api.signUp("ann@example.com", "Ann")
	bob := api.signUp("bob@example.com", "Bob")

	rec := api.do(http.MethodPost, "/api/v1/friend-requests", ann.token, apiserver.SendFriendRequestPayload{RecipientID: bob.user.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	requestID := decode[services.SendResult](t, rec).Request.ID

	rec = api.do(http.MethodDelete, "/api/v1/friend-requests/"+requestID, bob.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not_request_sender", errorCode(t, rec))

	rec = api.do(http.MethodPost, "/api/v1/friend-requests/"+requestID+"/reject", bob.token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodPost, "/api/v1/friend-requests/"+requestID+"/reject", bob.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/friend-requests", ann.token, apiserver.SendFriendRequestPayload{RecipientID: bob.user.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = api.do(http.MethodGet, "/api/v1/friend-requests/outgoing", ann.token, nil)
	require.Len(t, decode[[]models.FriendRequest](t, rec), 1)

	rec = api.do(http.MethodDelete, "/api/v1/friend-requests/"+requestID, ann.token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, "/api/v1/friend-requests/outgoing", ann.token, nil)
	assert.Empty(t, decode[[]models.FriendRequest](t, rec))
}

func TestRoomsAndMessages(t *testing.T) {
	api := newTestAPI(t)
	ann := api.signUp("ann@example.com", "Ann")
	bob := api.signUp("bob@example.com", "Bob")
	eve := api.signUp("eve@example.com", "Eve")

	rec := api.do(http.MethodPost, "/api/v1/rooms/direct", ann.token, apiserver.DirectRoomRequest{PeerID: bob.user.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	room := decode[models.Room](t, rec)

	rec = api.do(http.MethodPost, "/api/v1/rooms/direct", bob.token, apiserver.DirectRoomRequest{PeerID: ann.user.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, room.ID, decode[models.Room](t, rec).ID)

	rec = api.do(http.MethodPost, "/api/v1/rooms/direct", ann.token, apiserver.DirectRoomRequest{PeerID: ann.user.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_participants", errorCode(t, rec))

	path := "/api/v1/rooms/" + room.ID + "/messages"
	rec = api.do(http.MethodPost, path, ann.token, apiserver.PostMessageRequest{Text: "hi bob"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = api.do(http.MethodPost, path, ann.token, apiserver.PostMessageRequest{Text: "   "})
	assert.Equal(t, "empty_message", errorCode(t, rec))
	rec = api.do(http.MethodPost, path, eve.token, apiserver.PostMessageRequest{Text: "let me in"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodGet, path+"?limit=10", bob.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decode[[]models.RoomMessage](t, rec)
	require.Len(t, messages, 1)
	assert.Equal(t, "hi bob", messages[0].Text)

	rec = api.do(http.MethodGet, path+"?limit=abc", bob.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(http.MethodGet, "/api/v1/rooms/nope_room", ann.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/rooms", bob.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Room](t, rec), 1)
}

func TestShareReelRequiresFriendship(t *testing.T) {
	api := newTestAPI(t)
	ann := api.signUp("ann@example.com", "Ann")
	bob := api.signUp("bob@example.com", "Bob")
	reel := models.Reel{ID: "r1", VideoURL: "https://cdn.example.com/r1.mp4", AuthorNickname: "cat"}

	rec := api.do(http.MethodPost, "/api/v1/reels/share", ann.token, apiserver.ShareReelRequest{FriendID: bob.user.ID, Reel: reel})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_friends", errorCode(t, rec))

	api.do(http.MethodPost, "/api/v1/friend-requests", ann.token, apiserver.SendFriendRequestPayload{RecipientID: bob.user.ID})
	api.do(http.MethodPost, "/api/v1/friend-requests", bob.token, apiserver.SendFriendRequestPayload{RecipientID: ann.user.ID})

	rec = api.do(http.MethodPost, "/api/v1/reels/share", ann.token, apiserver.ShareReelRequest{FriendID: bob.user.ID, Reel: models.Reel{ID: "r2"}})
	assert.Equal(t, "invalid_reel", errorCode(t, rec))

	rec = api.do(http.MethodPost, "/api/v1/reels/share", ann.token, apiserver.ShareReelRequest{FriendID: bob.user.ID, Reel: reel})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	message := decode[models.RoomMessage](t, rec)
	assert.Equal(t, models.ReelMessage, message.Type)
	require.NotNil(t, message.Reel)
	assert.Equal(t, reel.VideoURL, message.Reel.VideoURL)
}

func TestAuthEndpoints(t *testing.T) {
	api := newTestAPI(t)
	ann := api.signUp("ann@example.com", "Ann")

	rec := api.do(http.MethodPost, "/auth/register", "", apiserver.RegisterRequest{Email: "ANN@example.com", DisplayName: "Ann2", Password: "password123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = api.do(http.MethodPost, "/auth/login", "", apiserver.LoginRequest{Email: "ann@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", errorCode(t, rec))

	rec = api.do(http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPut, "/api/v1/users/me", ann.token, apiserver.UpdateMyProfileRequest{DisplayName: "Annie"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Annie", decode[models.User](t, rec).DisplayName)

	rec = api.do(http.MethodPost, "/api/v1/auth/logout", ann.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodGet, "/api/v1/users/me", ann.token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchSkipsFriends(t *testing.T) {
	api := newTestAPI(t)
	ann := api.signUp("ann@example.com", "Ann")
	anna := api.signUp("anna@example.com", "Anna")
	annika := api.signUp("annika@example.com", "Annika")

	api.do(http.MethodPost, "/api/v1/friend-requests", ann.token, apiserver.SendFriendRequestPayload{RecipientID: anna.user.ID})

	rec := api.do(http.MethodGet, "/api/v1/users/search?q=ann", ann.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]models.UserSnapshot](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, annika.user.ID, found[0].ID)
}
