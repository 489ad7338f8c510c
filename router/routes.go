package router

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	handler "github.com/krishkalaria12/snap-code/handlers"
	"github.com/krishkalaria12/snap-code/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Code        *handler.CodeHandler
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Verifier    middleware.Verifier
	Ping        func(ctx context.Context) error
	FrontendURL string

	// GenerationsPerMin caps generate calls per user; 0 disables the limit.
	GenerationsPerMin int
	Log               *zap.Logger
}

func SetupRoutes(app *fiber.App, d Deps) {
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     d.FrontendURL,
		AllowCredentials: true,
	}))

	api := app.Group("/api", logger.New())
	api.Get("/health", handler.Health(d.Ping))

	protected := middleware.AuthMiddleware(d.Verifier, d.Log)

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", d.Auth.Register)
	auth.Post("/login", d.Auth.Login)
	auth.Post("/logout", protected, d.Auth.Logout)

	// User
	user := api.Group("/user", protected)
	user.Get("/me", d.User.GetUser)
	user.Patch("/me", d.User.UpdateUser)
	user.Delete("/me", d.User.DeleteUser)

	// Code
	code := api.Group("/code", protected)
	code.Post("/generate", middleware.RateLimit(d.GenerationsPerMin), d.Code.GenerateCode)
	code.Get("/history", d.Code.GetCodeHistory)
	code.Get("/:id", d.Code.GetCodeByID)
}
