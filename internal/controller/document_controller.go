package controller

import (
	"errors"
	"io"

	"ai-flashdeck-be/internal/dto"
	"ai-flashdeck-be/internal/pkg/serverutils"
	"ai-flashdeck-be/internal/service"
	"ai-flashdeck-be/pkg/extractor"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	CreateFromText(ctx *fiber.Ctx) error
}

type documentController struct {
	deckService service.IDeckService
	extractor   *extractor.Extractor
}

func NewDocumentController(deckService service.IDeckService, ex *extractor.Extractor) IDocumentController {
	return &documentController{deckService: deckService, extractor: ex}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Post("/upload", c.Upload)
	h.Post("/text", c.CreateFromText)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "missing_file", "No file was uploaded")
	}

	// Extension check happens before any byte of the payload is parsed.
	if !c.extractor.Supported(fileHeader.Filename) {
		return serverutils.NewAppError(fiber.StatusBadRequest, "unsupported_format",
			"Unsupported file format. Upload a .txt, .pdf, .docx or .md file.")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	text, err := c.extractor.Extract(fileHeader.Filename, data)
	if err != nil {
		return mapExtractionError(err)
	}
	if text == "" {
		return serverutils.NewAppError(fiber.StatusUnprocessableEntity, "empty_document",
			"The file contains no extractable text")
	}

	res, err := c.deckService.LoadDocument(ctx.Context(), serverutils.SessionID(ctx), text)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success load document", res))
}

func (c *documentController) CreateFromText(ctx *fiber.Ctx) error {
	var req dto.CreateDocumentFromTextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.deckService.LoadDocument(ctx.Context(), serverutils.SessionID(ctx), req.Text)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success load document", res))
}

func mapExtractionError(err error) error {
	var unsupported *extractor.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return serverutils.NewAppError(fiber.StatusBadRequest, "unsupported_format",
			"Unsupported file format: "+unsupported.Extension)
	}

	var corrupt *extractor.CorruptFileError
	if errors.As(err, &corrupt) {
		return serverutils.NewAppError(fiber.StatusUnprocessableEntity, "corrupt_file",
			"The file could not be read. It may be corrupt.")
	}

	return err
}
