package dto

import (
	"time"

	"github.com/google/uuid"
)

type DeckCardResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Mood      string    `json:"mood"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

type DeckErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DeckStateResponse is the full client-facing deck state. Window holds the
// current card plus a small lookahead; cards behind the cursor are never
// sent to the client.
type DeckStateResponse struct {
	SessionId   string             `json:"session_id"`
	HasDocument bool               `json:"has_document"`
	Status      string             `json:"status"`
	LastError   *DeckErrorResponse `json:"last_error,omitempty"`
	Cursor      int                `json:"cursor"`
	TotalCards  int                `json:"total_cards"`
	Window      []DeckCardResponse `json:"window"`
}

// PublishDeckSnapshotMessage asks the snapshot consumer to persist a
// session's document and card list. The token lets the consumer skip
// snapshots queued before a reset or re-upload.
type PublishDeckSnapshotMessage struct {
	SessionId     string    `json:"session_id"`
	DocumentToken uuid.UUID `json:"document_token"`
}
