// Package client is a typed HTTP client for the reelchat REST API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"reelchat/internal/models"
)

// APIError is a non-2xx response. Code is the server's machine-readable code
// such as "already_friends".
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Code    string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("%s (%s, status %d)", e.Message, e.Code, e.Status)
}

// HasCode reports whether err is an APIError with the given code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// SendResult mirrors the server's response to a friend request.
type SendResult struct {
	Outcome string                `json:"outcome"`
	Request *models.FriendRequest `json:"request"`
	Room    *models.Room          `json:"room,omitempty"`
}

// AcceptResult mirrors the server's response to an accept.
type AcceptResult struct {
	Request     *models.FriendRequest `json:"request"`
	Room        *models.Room          `json:"room"`
	RoomCreated bool                  `json:"roomCreated"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type pairStatusResponse struct {
	Status models.PairState `json:"status"`
}

// Client talks to one API server. It keeps the token of the last login.
type Client struct {
	http  *resty.Client
	token string
	me    *models.User
}

// New creates a client for baseURL, e.g. "http://localhost:8081".
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{http: httpClient}
}

// Token returns the session token, empty before Login.
func (c *Client) Token() string { return c.token }

// Me returns the logged-in user, nil before Login.
func (c *Client) Me() *models.User { return c.me }

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx).SetError(&APIError{})
	if c.token != "" {
		r.SetAuthToken(c.token)
	}
	return r
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.Status = resp.StatusCode()
	return apiErr
}

func (c *Client) Register(ctx context.Context, email, displayName, password string) (*models.User, error) {
	var user models.User
	resp, err := c.request(ctx).
		SetBody(map[string]string{"email": email, "displayName": displayName, "password": password}).
		SetResult(&user).
		Post("/auth/register")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out loginResponse
	resp, err := c.request(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		Post("/auth/login")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	c.token, c.me = out.Token, out.User
	return out.User, nil
}

// Logout revokes the token and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.request(ctx).Post("/api/v1/auth/logout")
	if err := check(resp, err); err != nil {
		return err
	}
	c.token, c.me = "", nil
	return nil
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.UserSnapshot, error) {
	var out []models.UserSnapshot
	resp, err := c.request(ctx).SetQueryParam("q", query).SetResult(&out).Get("/api/v1/users/search")
	return out, check(resp, err)
}

func (c *Client) SendFriendRequest(ctx context.Context, recipientID string) (*SendResult, error) {
	var out SendResult
	resp, err := c.request(ctx).
		SetBody(map[string]string{"recipientId": recipientID}).
		SetResult(&out).
		Post("/api/v1/friend-requests")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) IncomingRequests(ctx context.Context) ([]models.FriendRequest, error) {
	var out []models.FriendRequest
	resp, err := c.request(ctx).SetResult(&out).Get("/api/v1/friend-requests/incoming")
	return out, check(resp, err)
}

func (c *Client) OutgoingRequests(ctx context.Context) ([]models.FriendRequest, error) {
	var out []models.FriendRequest
	resp, err := c.request(ctx).SetResult(&out).Get("/api/v1/friend-requests/outgoing")
	return out, check(resp, err)
}

func (c *Client) AcceptRequest(ctx context.Context, requestID string) (*AcceptResult, error) {
	var out AcceptResult
	resp, err := c.request(ctx).
		SetPathParam("requestID", requestID).
		SetResult(&out).
		Post("/api/v1/friend-requests/{requestID}/accept")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RejectRequest(ctx context.Context, requestID string) error {
	resp, err := c.request(ctx).
		SetPathParam("requestID", requestID).
		Post("/api/v1/friend-requests/{requestID}/reject")
	return check(resp, err)
}

func (c *Client) CancelRequest(ctx context.Context, requestID string) error {
	resp, err := c.request(ctx).
		SetPathParam("requestID", requestID).
		Delete("/api/v1/friend-requests/{requestID}")
	return check(resp, err)
}

func (c *Client) Friends(ctx context.Context) ([]models.FriendEdge, error) {
	var out []models.FriendEdge
	resp, err := c.request(ctx).SetResult(&out).Get("/api/v1/friends")
	return out, check(resp, err)
}

func (c *Client) Unfriend(ctx context.Context, userID string) error {
	resp, err := c.request(ctx).SetPathParam("userID", userID).Delete("/api/v1/friends/{userID}")
	return check(resp, err)
}

func (c *Client) PairStatus(ctx context.Context, userID string) (models.PairState, error) {
	var out pairStatusResponse
	resp, err := c.request(ctx).SetPathParam("userID", userID).SetResult(&out).Get("/api/v1/friends/{userID}/status")
	if err := check(resp, err); err != nil {
		return "", err
	}
	return out.Status, nil
}

// OpenDirectRoom get-or-creates the room with peerID.
func (c *Client) OpenDirectRoom(ctx context.Context, peerID string) (*models.Room, error) {
	var room models.Room
	resp, err := c.request(ctx).
		SetBody(map[string]string{"peerId": peerID}).
		SetResult(&room).
		Post("/api/v1/rooms/direct")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) Rooms(ctx context.Context) ([]models.Room, error) {
	var out []models.Room
	resp, err := c.request(ctx).SetResult(&out).Get("/api/v1/rooms")
	return out, check(resp, err)
}

func (c *Client) SendMessage(ctx context.Context, roomID, text string) (*models.RoomMessage, error) {
	var msg models.RoomMessage
	resp, err := c.request(ctx).
		SetPathParam("roomID", roomID).
		SetBody(map[string]string{"text": text}).
		SetResult(&msg).
		Post("/api/v1/rooms/{roomID}/messages")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) Messages(ctx context.Context, roomID string, limit, offset int) ([]models.RoomMessage, error) {
	var out []models.RoomMessage
	resp, err := c.request(ctx).
		SetPathParam("roomID", roomID).
		SetQueryParams(map[string]string{
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset),
		}).
		SetResult(&out).
		Get("/api/v1/rooms/{roomID}/messages")
	return out, check(resp, err)
}

func (c *Client) ShareReel(ctx context.Context, friendID string, reel models.Reel) (*models.RoomMessage, error) {
	var msg models.RoomMessage
	resp, err := c.request(ctx).
		SetBody(map[string]any{"friendId": friendID, "reel": reel}).
		SetResult(&msg).
		Post("/api/v1/reels/share")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &msg, nil
}

// WebSocketURL returns the chat server URL for the current session.
func (c *Client) WebSocketURL(chatBase, path string) (string, error) {
	if c.token == "" {
		return "", &APIError{Status: http.StatusUnauthorized, Message: "not logged in", Code: "unauthorized"}
	}
	u, err := url.Parse(chatBase)
	if err != nil {
		return "", err
	}
	u.Path = path
	u.RawQuery = url.Values{"token": {c.token}}.Encode()
	return u.String(), nil
}
