package kafkahandlers

import (
	"context"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"reelchat/internal/imtypes"
)

// Dispatcher pushes an event to the connected clients of its recipients.
type Dispatcher interface {
	Dispatch(event imtypes.DomainEvent)
}

// EventConsumerLogic turns records from the events topic into websocket deliveries.
type EventConsumerLogic struct {
	dispatcher Dispatcher
}

func NewEventConsumerLogic(dispatcher Dispatcher) *EventConsumerLogic {
	return &EventConsumerLogic{dispatcher: dispatcher}
}

// HandleEvent is the kafka.MessageHandler for the events topic. Undecodable
// records are logged and skipped so they do not block the partition.
func (h *EventConsumerLogic) HandleEvent(_ context.Context, msg *kafka.Message) error {
	event, err := imtypes.DecodeDomainEvent(msg.Value)
	if err != nil {
		slog.Warn("skipping undecodable event", "key", string(msg.Key), "err", err)
		return nil
	}

	h.dispatcher.Dispatch(event)
	slog.Debug("event dispatched", "type", event.Type, "pair", event.PairID, "recipients", len(event.Recipients))
	return nil
}
