package services

import (
	"context"
	"log/slog"

	"reelchat/internal/imtypes"
)

// EventPublisher delivers committed domain events to the fan-out pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, event imtypes.DomainEvent) error
}

// NopPublisher drops every event. It is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, imtypes.DomainEvent) error { return nil }

// eventBatch collects the events of one operation so they are published only
// after its transaction commits.
type eventBatch struct {
	events []imtypes.DomainEvent
}

func (b *eventBatch) add(eventType imtypes.EventType, pairID, actorID string, recipients []string, payload any, decorate func(*imtypes.DomainEvent)) {
	event, err := imtypes.NewDomainEvent(eventType, pairID, actorID, recipients, payload)
	if err != nil {
		slog.Error("build domain event", "type", eventType, "err", err)
		return
	}
	if decorate != nil {
		decorate(&event)
	}
	b.events = append(b.events, event)
}

// publish is best effort. Failures are logged and dropped.
func (b *eventBatch) publish(ctx context.Context, publisher EventPublisher) {
	for _, event := range b.events {
		if err := publisher.Publish(ctx, event); err != nil {
			slog.Warn("publish domain event failed", "type", event.Type, "pair", event.PairID, "err", err)
		}
	}
}

func withRequest(requestID string) func(*imtypes.DomainEvent) {
	return func(e *imtypes.DomainEvent) { e.RequestID = requestID }
}

func withRoom(roomID string) func(*imtypes.DomainEvent) {
	return func(e *imtypes.DomainEvent) { e.RoomID = roomID }
}
