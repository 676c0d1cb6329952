package service

import (
	"context"

	"ai-flashdeck-be/internal/pkg/logger"
	"ai-flashdeck-be/pkg/events"
	pktNats "ai-flashdeck-be/pkg/nats" // Renamed to avoid collision

	"github.com/google/uuid"
)

// DeckEventDelivery defines how deck events reach connected clients.
// Typically implemented by the WebSocket Hub.
type DeckEventDelivery interface {
	Send(sessionID uuid.UUID, eventType string, data interface{})
}

// NotificationService bridges the NATS deck event stream to websocket
// delivery: the SPA learns a background generation finished without polling.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   DeckEventDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery DeckEventDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start subscribes to the deck event stream. A nil subscriber (NATS not
// configured) degrades to no realtime push; clients fall back to polling.
func (s *NotificationService) Start() error {
	if s.subscriber == nil {
		s.logger.Warn("NotificationService", "NATS subscriber unavailable, realtime push disabled", nil)
		return nil
	}

	return s.subscriber.Subscribe("events.deck.>", "deck-notifier", s.handleEvent)
}

func (s *NotificationService) handleEvent(_ context.Context, event events.Event) error {
	payload := event.Payload()

	raw, _ := payload["session_id"].(string)
	sessionID, err := uuid.Parse(raw)
	if err != nil {
		// Not retriable; drop it.
		s.logger.Warn("NotificationService", "Event without valid session id", map[string]interface{}{
			"event": event.EventType(),
		})
		return nil
	}

	s.delivery.Send(sessionID, event.EventType(), payload)
	return nil
}
