package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const SessionHeader = "X-Session-Id"

// SessionMiddleware scopes every request to an anonymous browser session.
// A valid session id is taken from the header; otherwise a fresh one is
// issued and echoed back so the SPA can persist it.
func SessionMiddleware(ctx *fiber.Ctx) error {
	sid := ctx.Get(SessionHeader)
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
	}

	ctx.Locals("session_id", sid)
	ctx.Set(SessionHeader, sid)
	return ctx.Next()
}

// SessionID extracts the session id placed by SessionMiddleware.
func SessionID(ctx *fiber.Ctx) string {
	sid, _ := ctx.Locals("session_id").(string)
	return sid
}
