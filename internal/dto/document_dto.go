package dto

// CreateDocumentFromTextRequest loads a pasted document instead of an
// uploaded file.
type CreateDocumentFromTextRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}
