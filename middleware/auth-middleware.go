package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-code/apperror"
	"go.uber.org/zap"
)

const (
	CookieName = "JWT"
	userIDKey  = "userID"
	tokenKey   = "token"
)

// Verifier resolves a bearer credential to a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (uint, error)
}

func AuthMiddleware(verifier Verifier, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := ExtractToken(c)

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "You are not authorized!",
				"data":    nil,
			})
		}

		userID, err := verifier.Verify(c.UserContext(), tokenStr)
		if err != nil {
			log.Debug("credential rejected", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "Invalid token",
				"data":    nil,
			})
		}

		c.Locals(userIDKey, userID)
		c.Locals(tokenKey, tokenStr)

		return c.Next()
	}
}

// ExtractToken reads the bearer header, falling back to the JWT cookie.
func ExtractToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if scheme, tok, ok := strings.Cut(authHeader, " "); ok && strings.EqualFold(scheme, "Bearer") {
		if tok = strings.TrimSpace(tok); tok != "" {
			return tok
		}
	}
	return c.Cookies(CookieName)
}

// CheckUserLoggedIn returns the identity stored by AuthMiddleware.
func CheckUserLoggedIn(c *fiber.Ctx) (uint, error) {
	userID, ok := c.Locals(userIDKey).(uint)
	if !ok || userID == 0 {
		return 0, apperror.New(apperror.Unauthenticated, "auth.locals", errors.New("no user in request"))
	}
	return userID, nil
}

// CurrentToken returns the credential AuthMiddleware accepted for this request.
func CurrentToken(c *fiber.Ctx) string {
	tok, _ := c.Locals(tokenKey).(string)
	return tok
}
