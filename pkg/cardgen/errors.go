package cardgen

import "errors"

// Generation failure taxonomy. Transport/configuration failures are kept
// distinct from content-shape failures so the UI can show a configuration
// message instead of a generic retry message.
var (
	// ErrUnauthorized means the service credential is missing or rejected.
	ErrUnauthorized = errors.New("cardgen: unauthorized")

	// ErrServiceUnavailable means the AI service could not be reached.
	ErrServiceUnavailable = errors.New("cardgen: service unavailable")

	// ErrMalformedResponse means the payload was not parseable as the card
	// structure at all.
	ErrMalformedResponse = errors.New("cardgen: malformed response")

	// ErrIncompleteResult means the payload parsed but a required field was
	// missing or the mood was outside the allowed enumeration.
	ErrIncompleteResult = errors.New("cardgen: incomplete result")
)
