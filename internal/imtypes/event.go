// Package imtypes holds the wire types shared by the API server, the Kafka
// event stream and the websocket fan-out.
package imtypes

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a domain event on the events topic.
type EventType string

const (
	FriendRequestCreated   EventType = "friend_request.created"
	FriendRequestAccepted  EventType = "friend_request.accepted"
	FriendRequestRejected  EventType = "friend_request.rejected"
	FriendRequestCancelled EventType = "friend_request.cancelled"
	FriendshipRemoved      EventType = "friendship.removed"
	RoomCreated            EventType = "room.created"
	RoomMessagePosted      EventType = "room.message"
)

// DomainEvent is published after a friendship or room change commits.
// Recipients are the users whose clients should hear about it.
type DomainEvent struct {
	Type       EventType       `json:"type"`
	PairID     string          `json:"pairId"` // canonical pair id, used as the partition key
	ActorID    string          `json:"actorId"`
	Recipients []string        `json:"recipients"`
	RequestID  string          `json:"requestId,omitempty"`
	RoomID     string          `json:"roomId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewDomainEvent encodes payload into a new event stamped with the current time.
func NewDomainEvent(eventType EventType, pairID, actorID string, recipients []string, payload any) (DomainEvent, error) {
	event := DomainEvent{
		Type:       eventType,
		PairID:     pairID,
		ActorID:    actorID,
		Recipients: recipients,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return DomainEvent{}, fmt.Errorf("encode %s payload: %w", eventType, err)
		}
		event.Payload = raw
	}
	return event, nil
}

// DecodeDomainEvent parses an event read from the topic.
func DecodeDomainEvent(data []byte) (DomainEvent, error) {
	var event DomainEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return DomainEvent{}, fmt.Errorf("decode domain event: %w", err)
	}
	if event.Type == "" {
		return DomainEvent{}, fmt.Errorf("decode domain event: missing type")
	}
	return event, nil
}
