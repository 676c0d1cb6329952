package deck

import (
	"log"
	"time"

	"github.com/google/uuid"
)

// Ticket identifies one generation request. It carries everything the
// generator needs plus the document token it was issued against, so the
// completion can be matched back to the document that requested it.
type Ticket struct {
	SessionID      string
	Token          uuid.UUID
	Document       string
	ExcludedTitles []string
}

// CardFields is a validated generator result ready to be committed.
type CardFields struct {
	Title    string
	Content  string
	Category string
	Mood     string
	Icon     string
}

// Manager owns every deck state transition. All methods lock the session,
// so an operation is atomic with respect to any other operation on the same
// session. At most one generation request is in flight per session: the
// Loading status is the mutual-exclusion guard.
type Manager struct {
	logger *log.Logger
}

// NewManager creates a new deck state manager.
func NewManager(logger *log.Logger) *Manager {
	return &Manager{logger: logger}
}

// LoadDocument replaces the session document, clears cards, cursor and the
// last error, and issues a fresh document token. The caller must follow up
// with BeginRequest: a freshly loaded document is exhausted by definition and
// always needs its first card.
func (m *Manager) LoadDocument(s *Session, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Document = text
	s.DocumentToken = uuid.New()
	s.Cards = make([]Card, 0)
	s.Cursor = 0
	s.Status = StatusIdle
	s.LastError = nil
	m.logger.Printf("[DECK] %s: document loaded (%d chars)", s.ID, len(text))
}

// Reset clears the document, cards, cursor and last error. The token is
// cleared as well, so any generation still in flight resolves against a
// token that no longer matches and is discarded on arrival.
func (m *Manager) Reset(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Document = ""
	s.DocumentToken = uuid.Nil
	s.Cards = make([]Card, 0)
	s.Cursor = 0
	s.Status = StatusIdle
	s.LastError = nil
	m.logger.Printf("[DECK] %s: reset", s.ID)
}

// BeginRequest transitions the session to Loading and returns a ticket for
// the generator call. It returns ok=false when no document is loaded or a
// request is already in flight; concurrent triggers collapse into a single
// network call.
func (m *Manager) BeginRequest(s *Session) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.HasDocument() || s.Status == StatusLoading {
		return Ticket{}, false
	}

	titles := make([]string, len(s.Cards))
	for i, c := range s.Cards {
		titles[i] = c.Title
	}

	s.Status = StatusLoading
	return Ticket{
		SessionID:      s.ID,
		Token:          s.DocumentToken,
		Document:       s.Document,
		ExcludedTitles: titles,
	}, true
}

// CompleteSuccess commits a generation result. The result is discarded when
// the token no longer matches the session's current document (the document
// was replaced or reset while the request was in flight); in that case the
// session is left untouched and ok=false is returned. On commit the card is
// appended with a fresh id, the last error is cleared and the session
// returns to Idle.
func (m *Manager) CompleteSuccess(s *Session, token uuid.UUID, fields CardFields) (Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.DocumentToken {
		m.logger.Printf("[DECK] %s: discarding stale generation result", s.ID)
		return Card{}, false
	}

	card := Card{
		Id:        uuid.New(),
		Title:     fields.Title,
		Content:   fields.Content,
		Category:  fields.Category,
		Mood:      fields.Mood,
		Icon:      fields.Icon,
		CreatedAt: time.Now().UTC(),
	}
	s.Cards = append(s.Cards, card)
	s.Status = StatusIdle
	s.LastError = nil
	m.logger.Printf("[DECK] %s: card %d appended: %s", s.ID, len(s.Cards), card.Title)
	return card, true
}

// CompleteFailure records a generation failure and returns the session to
// Idle. Stale failures (token mismatch) are discarded the same way stale
// successes are. Loading is never left hanging: every begun request ends in
// exactly one Complete call.
func (m *Manager) CompleteFailure(s *Session, token uuid.UUID, code, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.DocumentToken {
		return false
	}

	s.Status = StatusIdle
	s.LastError = &LastError{Code: code, Message: message}
	m.logger.Printf("[DECK] %s: generation failed: %s", s.ID, code)
	return true
}

// Advance moves the cursor forward by exactly one. There is no way back.
// Without a document the cursor has nothing to move through, so the call is
// a no-op. It reports whether replenishment should fire: the deck is
// exhausted and no request is in flight. The system never pre-generates
// cards the user has not reached; it only backfills here.
func (m *Manager) Advance(s *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.HasDocument() {
		return false
	}

	s.Cursor++
	return s.Exhausted() && s.Status == StatusIdle
}

// Window returns the card at the cursor plus at most lookahead upcoming
// cards. Cards before the cursor are never part of the window.
func (m *Manager) Window(s *Session, lookahead int) []Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Cursor >= len(s.Cards) {
		return []Card{}
	}
	end := s.Cursor + 1 + lookahead
	if end > len(s.Cards) {
		end = len(s.Cards)
	}
	window := make([]Card, end-s.Cursor)
	copy(window, s.Cards[s.Cursor:end])
	return window
}

// Snapshot returns a consistent copy of the mutable deck state for
// serialization, keyed to the document token it was taken under.
func (m *Manager) Snapshot(s *Session) (document string, cards []Card, token uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards = make([]Card, len(s.Cards))
	copy(cards, s.Cards)
	return s.Document, cards, s.DocumentToken
}

// View reads the presentation fields atomically.
func (m *Manager) View(s *Session) (status Status, lastErr *LastError, cursor, total int, hasDocument bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.LastError != nil {
		e := *s.LastError
		lastErr = &e
	}
	return s.Status, lastErr, s.Cursor, len(s.Cards), s.HasDocument()
}

// Restore seeds a session from persisted state. Used when a session cache
// entry is rebuilt from the durable store after a restart; the cursor starts
// over at zero, matching a fresh page load.
func (m *Manager) Restore(s *Session, document string, cards []Card) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Document = document
	s.DocumentToken = uuid.New()
	s.Cards = append(make([]Card, 0, len(cards)), cards...)
	s.Cursor = 0
	s.Status = StatusIdle
	s.LastError = nil
}
