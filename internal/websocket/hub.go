package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"reelchat/internal/imtypes"
)

// Hub tracks the live connections of each user and fans domain events out
// to them. A user may hold several connections (devices, tabs); each one
// gets every event addressed to that user.
type Hub struct {
	// clients maps a user id to that user's open connections.
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	events     chan imtypes.DomainEvent
	done       chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan imtypes.DomainEvent, 256),
		done:       make(chan struct{}),
	}
}

// Dispatch queues event for delivery. It never blocks the caller; when the
// queue is full the event is dropped.
func (h *Hub) Dispatch(event imtypes.DomainEvent) {
	select {
	case h.events <- event:
	default:
		slog.Warn("hub event queue full, dropping event", "type", event.Type, "pair", event.PairID)
	}
}

// Run owns the client table until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	slog.Info("websocket hub started")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for userID, conns := range h.clients {
				for client := range conns {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			slog.Info("websocket hub stopped")
			return

		case client := <-h.register:
			conns, ok := h.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.UserID] = conns
			}
			conns[client] = struct{}{}
			h.sendFrame(client, imtypes.Frame{Type: imtypes.WelcomeFrame, UserID: client.UserID})
			slog.Info("client registered", "user", client.UserID, "connections", len(conns))

		case client := <-h.unregister:
			h.remove(client)

		case event := <-h.events:
			h.deliver(event)
		}
	}
}

// attach and detach hand a client to the Run loop and stop blocking once
// Run has returned.
func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) deliver(event imtypes.DomainEvent) {
	seen := make(map[string]bool, len(event.Recipients))
	for _, userID := range event.Recipients {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		for client := range h.clients[userID] {
			h.sendFrame(client, imtypes.Frame{Type: imtypes.EventFrame, Event: &event})
		}
	}
}

// sendFrame enqueues frame on client. A client whose buffer is full is
// considered stuck and is dropped.
func (h *Hub) sendFrame(client *Client, frame imtypes.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("encode websocket frame", "type", frame.Type, "err", err)
		return
	}
	select {
	case client.send <- data:
	default:
		slog.Warn("client send buffer full, dropping connection", "user", client.UserID)
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	conns, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	slog.Info("client unregistered", "user", client.UserID, "connections", len(conns))
}
