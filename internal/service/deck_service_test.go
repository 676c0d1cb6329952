package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-flashdeck-be/internal/dto"
	"ai-flashdeck-be/internal/repository/contract"
	"ai-flashdeck-be/internal/repository/memory"
	"ai-flashdeck-be/pkg/cardgen"
	"ai-flashdeck-be/pkg/deck"
)

// nopLogger satisfies logger.ILogger without writing anything.
type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// scriptedGenerator returns queued results in order. When gate is set, each
// call blocks until the gate is closed, letting tests hold a request in
// flight deliberately.
type scriptedGenerator struct {
	mu      sync.Mutex
	results []generatorResult
	calls   int
	gate    chan struct{}
}

type generatorResult struct {
	fields *deck.CardFields
	err    error
}

func (g *scriptedGenerator) Generate(ctx context.Context, documentText string, excludedTitles []string) (*deck.CardFields, error) {
	if g.gate != nil {
		<-g.gate
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if len(g.results) == 0 {
		return &deck.CardFields{Title: "Fallback", Content: "c", Category: "cat", Mood: "calm", Icon: "📘"}, nil
	}
	next := g.results[0]
	g.results = g.results[1:]
	return next.fields, next.err
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func cardResult(title string) generatorResult {
	return generatorResult{fields: &deck.CardFields{
		Title:    title,
		Content:  "content for " + title,
		Category: "Test",
		Mood:     "calm",
		Icon:     "📘",
	}}
}

type deckFixture struct {
	service   *deckService
	generator *scriptedGenerator
	store     contract.Store
	sessions  *memory.SessionRepository
	pubSub    *gochannel.GoChannel
}

func newDeckFixture(t *testing.T, gen *scriptedGenerator) *deckFixture {
	t.Helper()

	sessions := memory.NewSessionRepository()
	store := memory.NewMemoryStore()
	machine := deck.NewManager(log.New(io.Discard, "", 0))
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	const topic = "deck_snapshot_test"
	publisher := NewPublisherService(topic, pubSub)
	consumer := NewConsumerService(pubSub, topic, sessions, machine, store)
	require.NoError(t, consumer.Consume(context.Background()))

	svc := NewDeckService(sessions, machine, gen, store, publisher, nil, nopLogger{}).(*deckService)
	return &deckFixture{
		service:   svc,
		generator: gen,
		store:     store,
		sessions:  sessions,
		pubSub:    pubSub,
	}
}

func TestLoadDocumentGeneratesFirstCard(t *testing.T) {
	gen := &scriptedGenerator{results: []generatorResult{cardResult("First")}}
	fx := newDeckFixture(t, gen)
	ctx := context.Background()

	state, err := fx.service.LoadDocument(ctx, "sess-1", "the document")
	require.NoError(t, err)
	assert.True(t, state.HasDocument)
	assert.Equal(t, "loading", state.Status)

	fx.service.waitForGenerations()

	state, err = fx.service.State(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "idle", state.Status)
	assert.Equal(t, 1, state.TotalCards)
	require.Len(t, state.Window, 1)
	assert.Equal(t, "First", state.Window[0].Title)
	assert.Equal(t, 1, gen.callCount())
}

func TestRequestCardDeduplicatesWhileInFlight(t *testing.T) {
	gate := make(chan struct{})
	gen := &scriptedGenerator{results: []generatorResult{cardResult("Only")}, gate: gate}
	fx := newDeckFixture(t, gen)
	ctx := context.Background()

	_, err := fx.service.LoadDocument(ctx, "sess-1", "the document")
	require.NoError(t, err)

	// Hammer the manual trigger while the first request is held open.
	for i := 0; i < 5; i++ {
		_, err := fx.service.RequestCard(ctx, "sess-1")
		require.NoError(t, err)
	}

	close(gate)
	fx.service.waitForGenerations()

	assert.Equal(t, 1, gen.callCount(), "concurrent triggers must collapse into one call")

	state, err := fx.service.State(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.TotalCards)
}

func TestAdvanceReplenishesOnExhaustion(t *testing.T) {
	gen := &scriptedGenerator{results: []generatorResult{cardResult("One"), cardResult("Two")}}
	fx := newDeckFixture(t, gen)
	ctx := context.Background()

	_, err := fx.service.LoadDocument(ctx, "sess-1", "the document")
	require.NoError(t, err)
	fx.service.waitForGenerations()

	// Swiping past the only card exhausts the deck and backfills.
	state, err := fx.service.Advance(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "loading", state.Status)

	fx.service.waitForGenerations()

	state, err = fx.service.State(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, state.TotalCards)
	assert.Equal(t, 1, state.Cursor)
	require.Len(t, state.Window, 1)
	assert.Equal(t, "Two", state.Window[0].Title)
}

func TestGenerationFailureKeepsDeck(t *testing.T) {
	gen := &scriptedGenerator{results: []generatorResult{
		cardResult("One"),
		{err: cardgen.ErrServiceUnavailable},
		cardResult("Two"),
	}}
	fx := newDeckFixture(t, gen)
	ctx := context.Background()

	_, err := fx.service.LoadDocument(ctx, "sess-1", "the document")
	require.NoError(t, err)
	fx.service.waitForGenerations()

	_, err = fx.service.Advance(ctx, "sess-1")
	require.NoError(t, err)
	fx.service.waitForGenerations()

	state, err := fx.service.State(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "idle", state.Status)
	require.NotNil(t, state.LastError)
	assert.Equal(t, "service_unavailable", state.LastError.Code)
	assert.Equal(t, 1, state.TotalCards, "failure must not discard generated cards")
	assert.Equal(t, 1, state.Cursor, "failure must not move the cursor")

	// Retry succeeds and clears the error.
	_, err = fx.service.RequestCard(ctx, "sess-1")
	require.NoError(t, err)
	fx.service.waitForGenerations()

	state, err = fx.service.State(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, state.LastError)
	assert.Equal(t, 2, state.TotalCards)
}

func TestGenerationFailureCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"unauthorized", cardgen.ErrUnauthorized, "unauthorized"},
		{"unavailable", cardgen.ErrServiceUnavailable, "service_unavailable"},
		{"malformed", cardgen.ErrMalformedResponse, "malformed_response"},
		{"incomplete", cardgen.ErrIncompleteResult, "incomplete_result"},
		{"unknown", errors.New("boom"), "generation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := generationFailure(tt.err)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	gate := make(chan struct{})
	gen := &scriptedGenerator{results: []generatorResult{cardResult("Stale")}, gate: gate}
	fx := newDeckFixture(t, gen)
	ctx := context.Background()

	_, err := fx.service.LoadDocument(ctx, "sess-1", "the document")
	require.NoError(t, err)

	// Reset while the generation is still held open.
	require.NoError(t, fx.service.Reset(ctx, "sess-1"))

	close(gate)
	fx.service.waitForGenerations()

	state, err := fx.service.State(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, state.HasDocument)
	assert.Equal(t, 0, state.TotalCards, "a result for the reset document must be discarded")
	assert.Nil(t, state.LastError)
}

func TestSnapshotPersistsAndRestores(t *testing.T) {
	gen := &scriptedGenerator{results: []generatorResult{cardResult("Persisted")}}
	fx := newDeckFixture(t, gen)
	ctx := context.Background()

	_, err := fx.service.LoadDocument(ctx, "sess-1", "the document")
	require.NoError(t, err)
	fx.service.waitForGenerations()

	// The snapshot consumer writes asynchronously.
	require.Eventually(t, func() bool {
		raw, err := fx.store.Get(ctx, cardsKey("sess-1"))
		if err != nil || raw == nil {
			return false
		}
		var cards []deck.Card
		return json.Unmarshal(raw, &cards) == nil && len(cards) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Drop the live session; the next State call must rebuild from the store.
	fx.sessions.Delete("sess-1")

	state, err := fx.service.State(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, state.HasDocument)
	assert.Equal(t, 1, state.TotalCards)
	assert.Equal(t, 0, state.Cursor, "restore starts over at the first card")
	require.Len(t, state.Window, 1)
	assert.Equal(t, "Persisted", state.Window[0].Title)
}

// hookedStore fires a callback after the first successful Set, letting a
// test interleave work between a snapshot's writes.
type hookedStore struct {
	contract.Store
	once       sync.Once
	onFirstSet func()
}

func (s *hookedStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.Store.Set(ctx, key, value); err != nil {
		return err
	}
	s.once.Do(s.onFirstSet)
	return nil
}

func TestSnapshotRacingResetDoesNotResurrectState(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionRepository()
	machine := deck.NewManager(log.New(io.Discard, "", 0))
	inner := memory.NewMemoryStore()

	sess := deck.NewSession("sess-1")
	machine.LoadDocument(sess, "the document")
	sessions.Save(sess)
	_, _, token := machine.Snapshot(sess)

	// The hook plays the part of a Reset request landing after the
	// consumer's token check but before its writes finish.
	store := &hookedStore{Store: inner, onFirstSet: func() {
		machine.Reset(sess)
		require.NoError(t, inner.Delete(ctx, documentKey("sess-1")))
		require.NoError(t, inner.Delete(ctx, cardsKey("sess-1")))
	}}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	consumer := NewConsumerService(pubSub, "deck_snapshot_test", sessions, machine, store).(*consumerService)

	payload, err := json.Marshal(dto.PublishDeckSnapshotMessage{
		SessionId:     "sess-1",
		DocumentToken: token,
	})
	require.NoError(t, err)
	consumer.processMessage(ctx, message.NewMessage(watermill.NewUUID(), payload))

	raw, err := inner.Get(ctx, documentKey("sess-1"))
	require.NoError(t, err)
	assert.Nil(t, raw, "document key must stay deleted after the racing reset")

	raw, err = inner.Get(ctx, cardsKey("sess-1"))
	require.NoError(t, err)
	assert.Nil(t, raw, "cards key must stay deleted after the racing reset")
}

func TestResetClearsPersistedKeys(t *testing.T) {
	gen := &scriptedGenerator{results: []generatorResult{cardResult("One")}}
	fx := newDeckFixture(t, gen)
	ctx := context.Background()

	_, err := fx.service.LoadDocument(ctx, "sess-1", "the document")
	require.NoError(t, err)
	fx.service.waitForGenerations()

	require.Eventually(t, func() bool {
		raw, err := fx.store.Get(ctx, documentKey("sess-1"))
		return err == nil && raw != nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, fx.service.Reset(ctx, "sess-1"))

	raw, err := fx.store.Get(ctx, documentKey("sess-1"))
	require.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = fx.store.Get(ctx, cardsKey("sess-1"))
	require.NoError(t, err)
	assert.Nil(t, raw)
}
