package service

import (
	"context"
	"encoding/json"
	"log"

	"ai-flashdeck-be/internal/dto"
	"ai-flashdeck-be/internal/repository/contract"
	"ai-flashdeck-be/internal/repository/memory"
	"ai-flashdeck-be/pkg/deck"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the snapshot topic and writes deck state to the
// durable store, keeping persistence off the request path.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	sessions  *memory.SessionRepository
	machine   *deck.Manager
	store     contract.Store
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	sessions *memory.SessionRepository,
	machine *deck.Manager,
	store contract.Store,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		sessions:  sessions,
		machine:   machine,
		store:     store,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishDeckSnapshotMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal snapshot message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	sess, ok := cs.sessions.Get(payload.SessionId)
	if !ok {
		// Session expired between publish and consume. Nothing to persist.
		msg.Ack()
		return
	}

	document, cards, token := cs.machine.Snapshot(sess)
	if token != payload.DocumentToken {
		// Snapshot was queued before a reset or re-upload; writing it now
		// would resurrect the old deck.
		msg.Ack()
		return
	}

	docJson, _ := json.Marshal(document)
	cardsJson, _ := json.Marshal(cards)

	if err := cs.store.Set(ctx, documentKey(payload.SessionId), docJson); err != nil {
		log.Printf("[ERROR] Failed to persist document for %s: %v", payload.SessionId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if err := cs.store.Set(ctx, cardsKey(payload.SessionId), cardsJson); err != nil {
		log.Printf("[ERROR] Failed to persist cards for %s: %v", payload.SessionId, err)
		msg.Nack()
		return
	}

	// A reset can land between the token check above and the writes,
	// deleting the keys this snapshot just re-created. Re-check and undo:
	// snapshots for a newer document sit behind this one on the same
	// subscription, so deleting here can never lose current state.
	if _, _, current := cs.machine.Snapshot(sess); current != payload.DocumentToken {
		if err := cs.store.Delete(ctx, documentKey(payload.SessionId)); err != nil {
			log.Printf("[ERROR] Failed to undo stale document write for %s: %v", payload.SessionId, err)
		}
		if err := cs.store.Delete(ctx, cardsKey(payload.SessionId)); err != nil {
			log.Printf("[ERROR] Failed to undo stale cards write for %s: %v", payload.SessionId, err)
		}
	}

	msg.Ack()
}
