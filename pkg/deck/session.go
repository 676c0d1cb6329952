package deck

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status describes whether a generation request is in flight for a session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
)

// Moods the generator is allowed to assign. Anything else is rejected.
var Moods = []string{"energetic", "calm", "serious", "inspirational", "technical", "creative"}

// ValidMood reports whether mood is one of the allowed values.
func ValidMood(mood string) bool {
	for _, m := range Moods {
		if m == mood {
			return true
		}
	}
	return false
}

// Card is one generated flashcard. Cards are immutable after insertion.
type Card struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Mood      string    `json:"mood"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

// LastError is the most recent generation failure, kept until the next
// successful generation or a reset.
type LastError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Session is the deck state for one browser session.
//
// Cards is append-only: entries are never reordered or mutated in place,
// insertion order is display order. Cursor only ever moves forward while a
// document is loaded. DocumentToken changes on every load/reset so that
// in-flight generation results issued against an older document can be
// recognized and discarded.
type Session struct {
	ID            string     `json:"id"`
	Document      string     `json:"-"`
	DocumentToken uuid.UUID  `json:"document_token"`
	Cards         []Card     `json:"cards"`
	Cursor        int        `json:"cursor"`
	Status        Status     `json:"status"`
	LastError     *LastError `json:"last_error,omitempty"`

	mu sync.Mutex
}

// NewSession returns an empty idle session with no document loaded.
func NewSession(id string) *Session {
	return &Session{
		ID:     id,
		Cards:  make([]Card, 0),
		Status: StatusIdle,
	}
}

// HasDocument reports whether a document is currently loaded.
func (s *Session) HasDocument() bool {
	return s.DocumentToken != uuid.Nil
}

// Exhausted reports whether the cursor has reached the end of the generated
// cards. A freshly loaded document with zero cards is exhausted by definition.
func (s *Session) Exhausted() bool {
	return s.Cursor >= len(s.Cards)
}
