package controller

import (
	"ai-flashdeck-be/internal/pkg/serverutils"
	"ai-flashdeck-be/internal/service"
	ws "ai-flashdeck-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IDeckController interface {
	RegisterRoutes(r fiber.Router)
	State(ctx *fiber.Ctx) error
	Advance(ctx *fiber.Ctx) error
	Generate(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type deckController struct {
	service service.IDeckService
	hub     *ws.Hub
}

func NewDeckController(service service.IDeckService, hub *ws.Hub) IDeckController {
	return &deckController{service: service, hub: hub}
}

func (c *deckController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/deck/v1")
	h.Get("", c.State)
	h.Post("/advance", c.Advance)
	h.Post("/generate", c.Generate)
	h.Post("/reset", c.Reset)

	h.Use("/ws", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	h.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		// Upgrade requests cannot carry custom headers from the browser, so
		// the session travels as a query parameter here.
		sessionID, err := uuid.Parse(conn.Query("session_id"))
		if err != nil {
			conn.Close()
			return
		}
		ws.ServeWs(c.hub, conn, sessionID)
	}))
}

func (c *deckController) State(ctx *fiber.Ctx) error {
	res, err := c.service.State(ctx.Context(), serverutils.SessionID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get deck state", res))
}

func (c *deckController) Advance(ctx *fiber.Ctx) error {
	res, err := c.service.Advance(ctx.Context(), serverutils.SessionID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success advance deck", res))
}

func (c *deckController) Generate(ctx *fiber.Ctx) error {
	res, err := c.service.RequestCard(ctx.Context(), serverutils.SessionID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success request card", res))
}

func (c *deckController) Reset(ctx *fiber.Ctx) error {
	if err := c.service.Reset(ctx.Context(), serverutils.SessionID(ctx)); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset deck", nil))
}
