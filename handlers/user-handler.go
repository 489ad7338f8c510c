package handler

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-code/apperror"
	"github.com/krishkalaria12/snap-code/auth"
	"github.com/krishkalaria12/snap-code/middleware"
	"go.uber.org/zap"
)

// UserHandler serves the caller's own account. There is no way to address
// another user's profile.
type UserHandler struct {
	users         auth.UserRepository
	tokens        TokenIssuer
	validate      *validator.Validate
	respond       *Responder
	log           *zap.Logger
	secureCookies bool
}

func NewUserHandler(users auth.UserRepository, tokens TokenIssuer, respond *Responder, log *zap.Logger, secureCookies bool) *UserHandler {
	return &UserHandler{
		users:         users,
		tokens:        tokens,
		validate:      validator.New(),
		respond:       respond,
		log:           log,
		secureCookies: secureCookies,
	}
}

func userNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":  "error",
		"message": "User not found",
		"data":    nil,
	})
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return h.respond.Error(c, err)
	}

	user, err := h.users.FindByID(c.UserContext(), userID)
	if err != nil {
		return h.respond.Error(c, err)
	}
	if user == nil {
		return userNotFound(c)
	}

	return c.JSON(fiber.Map{"status": "success", "message": "User found", "data": toUserResponse(user, "")})
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	type UpdateUser struct {
		Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
		FullName string `json:"name" validate:"required,max=100"`
	}

	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return h.respond.Error(c, err)
	}

	var input UpdateUser
	if err := c.BodyParser(&input); err != nil {
		return h.respond.Error(c, apperror.New(apperror.Invalid, "user.update", err))
	}
	input.Username = strings.TrimSpace(input.Username)
	input.FullName = strings.TrimSpace(input.FullName)
	if err := h.validate.Struct(input); err != nil {
		return h.respond.Error(c, apperror.New(apperror.Invalid, "user.update", err))
	}

	user, err := h.users.FindByID(c.UserContext(), userID)
	if err != nil {
		return h.respond.Error(c, err)
	}
	if user == nil {
		return userNotFound(c)
	}

	user.Username = input.Username
	user.FullName = input.FullName
	if err := h.users.Update(c.UserContext(), user); err != nil {
		return h.respond.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "User successfully updated",
		"data":    toUserResponse(user, ""),
	})
}

// DeleteUser soft-deletes the account and ends the current session.
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return h.respond.Error(c, err)
	}

	if err := h.users.Delete(c.UserContext(), userID); err != nil {
		return h.respond.Error(c, err)
	}

	if tok := middleware.CurrentToken(c); tok != "" {
		if err := h.tokens.Revoke(c.UserContext(), tok); err != nil {
			h.log.Warn("failed to revoke token", zap.Error(err))
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "User deleted successfully",
		"data":    nil,
	})
}
