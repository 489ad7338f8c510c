package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-code/middleware"
	"github.com/krishkalaria12/snap-code/pipeline"
	"github.com/krishkalaria12/snap-code/store"
	"github.com/krishkalaria12/snap-code/uploads"
)

// Runner executes one generation request.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type CodeHandler struct {
	pipeline Runner
	store    store.Store
	respond  *Responder
}

func NewCodeHandler(p Runner, st store.Store, respond *Responder) *CodeHandler {
	return &CodeHandler{pipeline: p, store: st, respond: respond}
}

// GenerateCode handles POST /api/code/generate.
func (h *CodeHandler) GenerateCode(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return h.respond.Error(c, err)
	}

	// A missing field and a non-multipart body both mean no file.
	file, err := c.FormFile(uploads.FieldName)
	if err != nil {
		file = nil
	}

	result, err := h.pipeline.Run(c.UserContext(), pipeline.Request{
		UserID:     userID,
		File:       file,
		OutputType: c.FormValue("outputType"),
	})
	if err != nil {
		return h.respond.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetCodeHistory handles GET /api/code/history.
func (h *CodeHandler) GetCodeHistory(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return h.respond.Error(c, err)
	}

	records, err := h.store.ListForUser(c.UserContext(), userID)
	if err != nil {
		return h.respond.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(records)
}

// GetCodeByID handles GET /api/code/:id.
func (h *CodeHandler) GetCodeByID(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return h.respond.Error(c, err)
	}

	record, err := h.store.GetByIDForUser(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return h.respond.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(record)
}
