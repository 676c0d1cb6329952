package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-flashdeck-be/internal/dto"
	"ai-flashdeck-be/internal/pkg/logger"
	"ai-flashdeck-be/internal/repository/contract"
	"ai-flashdeck-be/internal/repository/memory"
	"ai-flashdeck-be/pkg/cardgen"
	"ai-flashdeck-be/pkg/deck"
	"ai-flashdeck-be/pkg/events"
)

// displayLookahead bounds how many upcoming cards the client may render
// beyond the current one.
const displayLookahead = 2

const generationTimeout = 90 * time.Second

// EventPublisher is the outbound event boundary (NATS in production).
// A nil publisher disables event fanout; everything else still works.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IDeckService interface {
	// State returns the current deck state, restoring the session from the
	// durable store if needed.
	State(ctx context.Context, sessionID string) (*dto.DeckStateResponse, error)

	// LoadDocument replaces the session's document and immediately requests
	// the first card: an empty deck with a loaded document is exhausted by
	// definition.
	LoadDocument(ctx context.Context, sessionID, text string) (*dto.DeckStateResponse, error)

	// Advance moves past the current card and backfills reactively when the
	// deck runs out.
	Advance(ctx context.Context, sessionID string) (*dto.DeckStateResponse, error)

	// RequestCard is the manual "Generate More" trigger. Dedup applies: a
	// request already in flight makes this a no-op.
	RequestCard(ctx context.Context, sessionID string) (*dto.DeckStateResponse, error)

	// Reset clears the session and its persisted keys.
	Reset(ctx context.Context, sessionID string) error
}

type deckService struct {
	sessions         *memory.SessionRepository
	machine          *deck.Manager
	generator        cardgen.Generator
	store            contract.Store
	publisherService IPublisherService
	eventPublisher   EventPublisher
	logger           logger.ILogger

	// guards session creation so two concurrent requests for a new session
	// resolve to the same instance
	createMu sync.Mutex

	// tracks in-flight generations; tests wait on it
	inflight sync.WaitGroup
}

func NewDeckService(
	sessions *memory.SessionRepository,
	machine *deck.Manager,
	generator cardgen.Generator,
	store contract.Store,
	publisherService IPublisherService,
	eventPublisher EventPublisher,
	sysLogger logger.ILogger,
) IDeckService {
	return &deckService{
		sessions:         sessions,
		machine:          machine,
		generator:        generator,
		store:            store,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           sysLogger,
	}
}

func documentKey(sessionID string) string {
	return fmt.Sprintf("deck:%s:document", sessionID)
}

func cardsKey(sessionID string) string {
	return fmt.Sprintf("deck:%s:cards", sessionID)
}

func (s *deckService) State(ctx context.Context, sessionID string) (*dto.DeckStateResponse, error) {
	sess := s.session(ctx, sessionID)
	return s.stateResponse(sess), nil
}

func (s *deckService) LoadDocument(ctx context.Context, sessionID, text string) (*dto.DeckStateResponse, error) {
	sess := s.session(ctx, sessionID)

	s.machine.LoadDocument(sess, text)
	s.publishSnapshot(ctx, sess)

	// Auto-generation rule: the first card is requested without waiting for
	// a user action.
	s.startGeneration(sess)

	return s.stateResponse(sess), nil
}

func (s *deckService) Advance(ctx context.Context, sessionID string) (*dto.DeckStateResponse, error) {
	sess := s.session(ctx, sessionID)

	if replenish := s.machine.Advance(sess); replenish {
		s.startGeneration(sess)
	}

	return s.stateResponse(sess), nil
}

func (s *deckService) RequestCard(ctx context.Context, sessionID string) (*dto.DeckStateResponse, error) {
	sess := s.session(ctx, sessionID)
	s.startGeneration(sess)
	return s.stateResponse(sess), nil
}

func (s *deckService) Reset(ctx context.Context, sessionID string) error {
	sess := s.session(ctx, sessionID)

	// New token first: a generation still in flight resolves against a
	// token that no longer exists and is dropped on arrival.
	s.machine.Reset(sess)

	if err := s.store.Delete(ctx, documentKey(sessionID)); err != nil {
		return err
	}
	return s.store.Delete(ctx, cardsKey(sessionID))
}

// session returns the live session, rebuilding it from the durable store on
// a cache miss.
func (s *deckService) session(ctx context.Context, sessionID string) *deck.Session {
	if sess, ok := s.sessions.Get(sessionID); ok {
		return sess
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()
	if sess, ok := s.sessions.Get(sessionID); ok {
		return sess
	}

	sess := deck.NewSession(sessionID)
	if document, cards, ok := s.restore(ctx, sessionID); ok {
		s.machine.Restore(sess, document, cards)
		s.logger.Info("DeckService", "Session restored from store", map[string]interface{}{
			"session_id": sessionID,
			"cards":      len(cards),
		})
	}
	s.sessions.Save(sess)
	return sess
}

func (s *deckService) restore(ctx context.Context, sessionID string) (string, []deck.Card, bool) {
	raw, err := s.store.Get(ctx, documentKey(sessionID))
	if err != nil {
		s.logger.Warn("DeckService", "Store read failed during restore", map[string]interface{}{"error": err.Error()})
		return "", nil, false
	}
	if raw == nil {
		return "", nil, false
	}

	var document string
	if err := json.Unmarshal(raw, &document); err != nil || document == "" {
		return "", nil, false
	}

	var cards []deck.Card
	if rawCards, err := s.store.Get(ctx, cardsKey(sessionID)); err == nil && rawCards != nil {
		_ = json.Unmarshal(rawCards, &cards)
	}
	return document, cards, true
}

// startGeneration begins a generation request unless one is already in
// flight for this session. The network call runs off the request goroutine;
// the client observes completion via the deck state or a websocket event.
func (s *deckService) startGeneration(sess *deck.Session) {
	ticket, ok := s.machine.BeginRequest(sess)
	if !ok {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.runGeneration(ticket, sess)
	}()
}

func (s *deckService) runGeneration(ticket deck.Ticket, sess *deck.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	fields, err := s.generator.Generate(ctx, ticket.Document, ticket.ExcludedTitles)
	if err != nil {
		code, message := generationFailure(err)
		if committed := s.machine.CompleteFailure(sess, ticket.Token, code, message); committed {
			s.publishEvent(ctx, events.NewGenerationFailed(sess.ID, code, message))
		}
		s.logger.Warn("DeckService", "Generation failed", map[string]interface{}{
			"session_id": sess.ID,
			"code":       code,
			"error":      err.Error(),
		})
		return
	}

	card, committed := s.machine.CompleteSuccess(sess, ticket.Token, *fields)
	if !committed {
		// The document changed while the request was in flight. Nothing to
		// persist, nothing to announce.
		return
	}

	s.publishSnapshot(ctx, sess)
	s.publishEvent(ctx, events.NewCardGenerated(sess.ID, map[string]interface{}{
		"id":       card.Id.String(),
		"title":    card.Title,
		"content":  card.Content,
		"category": card.Category,
		"mood":     card.Mood,
		"icon":     card.Icon,
	}))
}

// publishSnapshot queues an asynchronous write of the session's document and
// card list to the durable store.
func (s *deckService) publishSnapshot(ctx context.Context, sess *deck.Session) {
	_, _, token := s.machine.Snapshot(sess)
	msg := dto.PublishDeckSnapshotMessage{
		SessionId:     sess.ID,
		DocumentToken: token,
	}
	payload, _ := json.Marshal(msg)
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Error("DeckService", "Failed to publish snapshot message", map[string]interface{}{"error": err.Error()})
	}
}

func (s *deckService) publishEvent(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("DeckService", "Failed to publish deck event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *deckService) stateResponse(sess *deck.Session) *dto.DeckStateResponse {
	status, lastErr, cursor, total, hasDocument := s.machine.View(sess)

	window := s.machine.Window(sess, displayLookahead)
	windowDto := make([]dto.DeckCardResponse, len(window))
	for i, c := range window {
		windowDto[i] = dto.DeckCardResponse{
			Id:        c.Id,
			Title:     c.Title,
			Content:   c.Content,
			Category:  c.Category,
			Mood:      c.Mood,
			Icon:      c.Icon,
			CreatedAt: c.CreatedAt,
		}
	}

	res := &dto.DeckStateResponse{
		SessionId:   sess.ID,
		HasDocument: hasDocument,
		Status:      string(status),
		Cursor:      cursor,
		TotalCards:  total,
		Window:      windowDto,
	}
	if lastErr != nil {
		res.LastError = &dto.DeckErrorResponse{Code: lastErr.Code, Message: lastErr.Message}
	}
	return res
}

// generationFailure maps generator errors onto the user-facing error codes
// the SPA distinguishes: configuration problems get a configuration message,
// everything else a retry message.
func generationFailure(err error) (code, message string) {
	switch {
	case errors.Is(err, cardgen.ErrUnauthorized):
		return "unauthorized", "AI service credential is missing or invalid. Check the server configuration."
	case errors.Is(err, cardgen.ErrServiceUnavailable):
		return "service_unavailable", "AI service could not be reached. Try again."
	case errors.Is(err, cardgen.ErrMalformedResponse):
		return "malformed_response", "The AI returned an invalid response. Try again."
	case errors.Is(err, cardgen.ErrIncompleteResult):
		return "incomplete_result", "The AI returned an incomplete card. Try again."
	default:
		return "generation_failed", "Card generation failed. Try again."
	}
}

// used by tests to wait for background generations to settle
func (s *deckService) waitForGenerations() {
	s.inflight.Wait()
}
