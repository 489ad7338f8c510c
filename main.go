package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-code/auth"
	"github.com/krishkalaria12/snap-code/config"
	"github.com/krishkalaria12/snap-code/database"
	"github.com/krishkalaria12/snap-code/generator"
	handler "github.com/krishkalaria12/snap-code/handlers"
	"github.com/krishkalaria12/snap-code/logger"
	"github.com/krishkalaria12/snap-code/models"
	"github.com/krishkalaria12/snap-code/pipeline"
	"github.com/krishkalaria12/snap-code/router"
	"github.com/krishkalaria12/snap-code/store"
	"github.com/krishkalaria12/snap-code/uploads"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Path: cfg.LogPath})
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	// close the database connection
	defer func() {
		if err := database.CloseDB(db); err != nil {
			log.Error("closing the database connection", zap.Error(err))
		}
	}()

	if err := database.MigrateModels(db, &models.User{}, &models.GeneratedCode{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var revoker auth.Revoker = auth.NewMemoryRevoker()
	if cfg.RedisURL != "" {
		rr, err := auth.NewRedisRevoker(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rr.Close()
		revoker = rr
	}

	users := auth.NewGormUsers(db)
	authService := auth.SetupAuthService(auth.Options{
		Secret:      cfg.JWTSecret,
		TokenTTL:    cfg.JWTExpiresIn,
		FrontendURL: cfg.FrontendURL,
	}, revoker, users)

	genaiClient, err := generator.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return err
	}
	gen := generator.New(genaiClient.Models, generator.Options{
		Model:       cfg.GeminiModel,
		Timeout:     cfg.GenerationTimeout,
		MaxImageDim: cfg.MaxImageDim,
	}, log.Named("generator"))

	intake, err := uploads.NewIntake(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	codes := store.NewGormStore(db)
	respond := handler.NewResponder(log, cfg.ExposeErrorDetail)
	secureCookies := strings.HasPrefix(cfg.FrontendURL, "https://")

	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.MaxUploadBytes) + 1<<20,
		ErrorHandler: respond.ErrorHandler,
	})

	router.SetupRoutes(app, router.Deps{
		Code:        handler.NewCodeHandler(pipeline.New(intake, gen, codes, log.Named("pipeline")), codes, respond),
		Auth:        handler.NewAuthHandler(authService, users, respond, log, secureCookies),
		User:        handler.NewUserHandler(users, authService, respond, log, secureCookies),
		Verifier:    authService,
		Ping:        func(ctx context.Context) error { return database.Ping(ctx, db) },
		FrontendURL: cfg.FrontendURL,

		GenerationsPerMin: cfg.GenerationsPerMin,
		Log:               log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server is listening", zap.String("addr", cfg.Addr()))
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GenerationTimeout+5*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
