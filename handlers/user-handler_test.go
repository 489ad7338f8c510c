package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-code/auth"
	"github.com/krishkalaria12/snap-code/middleware"
	"github.com/krishkalaria12/snap-code/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserApp(t *testing.T) (*fiber.App, *memoryUsers, *sessionTokens) {
	t.Helper()
	users := newMemoryUsers()
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &models.User{Email: "alice@example.com", Username: "alice", FullName: "Alice"}))
	require.NoError(t, users.Create(ctx, &models.User{Email: "bob@example.com", Username: "bob", FullName: "Bob"}))

	tokens := &sessionTokens{}
	log := zap.NewNop()
	h := NewUserHandler(users, tokens, NewResponder(log, false), log, false)

	app := fiber.New()
	me := app.Group("/api/user", middleware.AuthMiddleware(testTokens, log))
	me.Get("/me", h.GetUser)
	me.Patch("/me", h.UpdateUser)
	me.Delete("/me", h.DeleteUser)
	return app, users, tokens
}

func userRequest(method, token, body string) *http.Request {
	req := httptest.NewRequest(method, "/api/user/me", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return req
}

func TestGetUserReturnsCaller(t *testing.T) {
	app, _, _ := newUserApp(t)

	var body map[string]any
	require.Equal(t, fiber.StatusOK, doJSON(t, app, userRequest(http.MethodGet, "bob-token", ""), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "bob", data["username"])
	assert.Equal(t, "2", data["id"])
	assert.NotContains(t, data, "token")
}

func TestUpdateUser(t *testing.T) {
	app, users, _ := newUserApp(t)

	var body map[string]any
	status := doJSON(t, app, userRequest(http.MethodPatch, "alice-token", `{"username":"alice2","name":"Alice Liddell"}`), &body)
	require.Equal(t, fiber.StatusOK, status)

	stored, err := users.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice2", stored.Username)
	assert.Equal(t, "Alice Liddell", stored.FullName)
	assert.Equal(t, "alice@example.com", stored.Email)

	assert.Equal(t, fiber.StatusConflict,
		doJSON(t, app, userRequest(http.MethodPatch, "alice-token", `{"username":"bob","name":"Alice"}`), nil))
	assert.Equal(t, fiber.StatusBadRequest,
		doJSON(t, app, userRequest(http.MethodPatch, "alice-token", `{"username":"","name":"Alice"}`), nil))
}

func TestDeleteUserEndsSession(t *testing.T) {
	app, users, tokens := newUserApp(t)

	require.Equal(t, fiber.StatusOK, doJSON(t, app, userRequest(http.MethodDelete, "alice-token", ""), nil))
	assert.Equal(t, []string{"alice-token"}, tokens.revoked)

	gone, err := users.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, gone)

	var body map[string]any
	assert.Equal(t, fiber.StatusNotFound, doJSON(t, app, userRequest(http.MethodGet, "alice-token", ""), &body))
	assert.Equal(t, "User not found", body["message"])

	bob, err := users.FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, bob)
}

func TestDeleteUserEndsEveryOtherSession(t *testing.T) {
	users := newMemoryUsers()
	alice := &models.User{Email: "alice@example.com", Username: "alice", FullName: "Alice"}
	require.NoError(t, users.Create(context.Background(), alice))

	service := auth.SetupAuthService(auth.Options{Secret: "handler-test-secret", TokenTTL: time.Hour}, nil, users)
	laptop, _, err := service.IssueToken(alice)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond) // distinct iat, distinct token
	phone, _, err := service.IssueToken(alice)
	require.NoError(t, err)
	require.NotEqual(t, laptop, phone)

	log := zap.NewNop()
	h := NewUserHandler(users, service, NewResponder(log, false), log, false)
	app := fiber.New()
	me := app.Group("/api/user", middleware.AuthMiddleware(service, log))
	me.Get("/me", h.GetUser)
	me.Delete("/me", h.DeleteUser)

	require.Equal(t, fiber.StatusOK, doJSON(t, app, userRequest(http.MethodGet, phone, ""), nil))
	require.Equal(t, fiber.StatusOK, doJSON(t, app, userRequest(http.MethodDelete, laptop, ""), nil))

	var body map[string]any
	assert.Equal(t, fiber.StatusUnauthorized, doJSON(t, app, userRequest(http.MethodGet, phone, ""), &body))
	assert.Equal(t, "Invalid token", body["message"])
}
