package apiserver

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"reelchat/internal/auth"
	"reelchat/internal/config"
	"reelchat/internal/middleware"
	"reelchat/internal/services"
)

// Services bundles what the REST handlers depend on.
type Services struct {
	Auth        services.AuthService
	Users       services.UserService
	Ledger      services.FriendRequestService
	Friendships services.FriendshipService
	Rooms       services.RoomService
}

// NewRouter wires every route behind the JWT middleware (except register and
// login) and wraps the result in CORS.
func NewRouter(svc Services, cfg config.Config, blacklist auth.TokenBlacklist) http.Handler {
	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users)
	friendReqHandler := NewFriendRequestHandler(svc.Ledger, svc.Users)
	friendHandler := NewFriendHandler(svc.Friendships, svc.Ledger)
	roomHandler := NewRoomHandler(svc.Rooms, svc.Users)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.AuthMiddleware(cfg.Auth, blacklist))

	apiRouter.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	apiRouter.HandleFunc("/users/me", userHandler.GetMyProfile).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/me", userHandler.UpdateMyProfile).Methods(http.MethodPut)
	apiRouter.HandleFunc("/users/search", userHandler.SearchUsers).Methods(http.MethodGet)

	apiRouter.HandleFunc("/friends", friendHandler.ListFriends).Methods(http.MethodGet)
	apiRouter.HandleFunc("/friends/{userID}", friendHandler.RemoveFriend).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/friends/{userID}/status", friendHandler.PairStatus).Methods(http.MethodGet)

	friendRequestRouter := apiRouter.PathPrefix("/friend-requests").Subrouter()
	friendRequestRouter.HandleFunc("", friendReqHandler.SendFriendRequestHandler).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/incoming", friendReqHandler.GetIncomingRequestsHandler).Methods(http.MethodGet)
	friendRequestRouter.HandleFunc("/outgoing", friendReqHandler.GetOutgoingRequestsHandler).Methods(http.MethodGet)
	friendRequestRouter.HandleFunc("/{requestID}/accept", friendReqHandler.AcceptFriendRequestHandler).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/{requestID}/reject", friendReqHandler.RejectFriendRequestHandler).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/{requestID}", friendReqHandler.CancelFriendRequestHandler).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/rooms", roomHandler.ListRooms).Methods(http.MethodGet)
	apiRouter.HandleFunc("/rooms/direct", roomHandler.OpenDirectRoom).Methods(http.MethodPost)
	apiRouter.HandleFunc("/rooms/{roomID}", roomHandler.GetRoom).Methods(http.MethodGet)
	apiRouter.HandleFunc("/rooms/{roomID}/messages", roomHandler.ListMessages).Methods(http.MethodGet)
	apiRouter.HandleFunc("/rooms/{roomID}/messages", roomHandler.PostMessage).Methods(http.MethodPost)
	apiRouter.HandleFunc("/reels/share", roomHandler.ShareReel).Methods(http.MethodPost)

	return withCORS(r, cfg.APIServer.CORS)
}

func withCORS(h http.Handler, cfg config.CORSConfig) http.Handler {
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods(cfg.AllowedMethods),
		handlers.AllowedHeaders(cfg.AllowedHeaders),
		handlers.ExposedHeaders(cfg.ExposedHeaders),
		handlers.MaxAge(cfg.MaxAge),
	}
	if cfg.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	return handlers.CORS(corsOptions...)(h)
}
