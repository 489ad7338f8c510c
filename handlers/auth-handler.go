package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-code/apperror"
	"github.com/krishkalaria12/snap-code/auth"
	"github.com/krishkalaria12/snap-code/middleware"
	"github.com/krishkalaria12/snap-code/models"
	"go.uber.org/zap"
)

// TokenIssuer is the part of auth.Service the account endpoints use.
type TokenIssuer interface {
	IssueToken(user *models.User) (string, time.Time, error)
	Revoke(ctx context.Context, token string) error
}

type AuthHandler struct {
	tokens        TokenIssuer
	users         auth.UserRepository
	validate      *validator.Validate
	respond       *Responder
	log           *zap.Logger
	secureCookies bool
}

func NewAuthHandler(tokens TokenIssuer, users auth.UserRepository, respond *Responder, log *zap.Logger, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		tokens:        tokens,
		users:         users,
		validate:      validator.New(),
		respond:       respond,
		log:           log,
		secureCookies: secureCookies,
	}
}

type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"name"`
	Token    string `json:"token,omitempty"`
}

func toUserResponse(u *models.User, token string) UserResponse {
	return UserResponse{
		ID:       strconv.FormatUint(uint64(u.ID), 10),
		Email:    u.Email,
		Username: u.Username,
		FullName: u.FullName,
		Token:    token,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	type RegisterData struct {
		Email    string `json:"email" validate:"required,email"`
		Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
		FullName string `json:"name" validate:"max=100"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}

	input := new(RegisterData)
	if err := c.BodyParser(input); err != nil {
		return h.respond.Error(c, apperror.New(apperror.Invalid, "auth.register", err))
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.TrimSpace(input.Username)

	if err := h.validate.Struct(input); err != nil {
		return h.respond.Error(c, apperror.New(apperror.Invalid, "auth.register", err))
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return h.respond.Error(c, err)
	}

	user := &models.User{
		Email:    input.Email,
		Username: input.Username,
		FullName: input.FullName,
		Password: hash,
	}
	if err := h.users.Create(c.UserContext(), user); err != nil {
		return h.respond.Error(c, err)
	}

	return h.startSession(c, user, fiber.StatusCreated, "User created successfully")
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	type LoginData struct {
		Identity string `json:"identity" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	input := new(LoginData)
	if err := c.BodyParser(input); err != nil {
		return h.respond.Error(c, apperror.New(apperror.Invalid, "auth.login", err))
	}
	if err := h.validate.Struct(input); err != nil {
		return h.respond.Error(c, apperror.New(apperror.Invalid, "auth.login", err))
	}

	identity := strings.TrimSpace(input.Identity)
	if strings.Contains(identity, "@") {
		identity = strings.ToLower(identity)
	}

	user, err := h.users.FindByIdentity(c.UserContext(), identity)
	if err != nil {
		return h.respond.Error(c, err)
	}

	if user == nil || !auth.CheckPasswordHash(input.Password, user.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid identity or password",
			"data":    nil,
		})
	}

	return h.startSession(c, user, fiber.StatusOK, "Login successful")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
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

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Logout successful",
		"data":    nil,
	})
}

func (h *AuthHandler) startSession(c *fiber.Ctx, user *models.User, status int, message string) error {
	tokenStr, expiresAt, err := h.tokens.IssueToken(user)
	if err != nil {
		return h.respond.Error(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    tokenStr,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: "Lax",
	})

	return c.Status(status).JSON(fiber.Map{
		"status":  "success",
		"message": message,
		"data":    toUserResponse(user, tokenStr),
	})
}
