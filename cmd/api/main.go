package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ashmitsharp/classtrib-api/internal/cache"
	"github.com/ashmitsharp/classtrib-api/internal/config"
	"github.com/ashmitsharp/classtrib-api/internal/database"
	"github.com/ashmitsharp/classtrib-api/internal/database/db"
	"github.com/ashmitsharp/classtrib-api/internal/handlers"
	"github.com/ashmitsharp/classtrib-api/internal/middleware"
	"github.com/ashmitsharp/classtrib-api/internal/services"
	"github.com/ashmitsharp/classtrib-api/internal/utils"
	"github.com/ashmitsharp/classtrib-api/pkg/logger"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/static"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.SetLevel(cfg.LogLevel)
	if cfg.IsProduction() {
		logger.UseJSON()
	}

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	queries := db.New(pool)

	if err := bootstrapAdmin(ctx, queries, cfg); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to bootstrap admin user")
	}

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize report cache")
	}

	// A nil *StorageService must not reach the handlers as a non-nil interface
	var (
		archiver handlers.Archiver
		purger   handlers.ArchivePurger
	)
	if cfg.S3Bucket != "" {
		storage, err := services.NewStorageService(ctx, cfg.S3Bucket, cfg.S3Region, cfg.AWSEndpoint)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize storage service")
		}
		archiver = storage
		purger = storage
		logger.Log.Info().Str("bucket", cfg.S3Bucket).Msg("Upload archiving enabled")
	} else {
		logger.Log.Info().Msg("S3_BUCKET not set, upload archiving disabled")
	}

	reportService := services.NewReportService(queries, reportCache)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn)

	authHandler := handlers.NewAuthHandler(queries, tokens)
	uploadHandler := handlers.NewUploadHandler(
		services.NewParser(),
		services.NewFileValidator(cfg.MaxUploadBytes),
		reportService,
		queries,
		queries,
		archiver,
	)
	reportHandler := handlers.NewReportHandler(reportService)
	usersHandler := handlers.NewUsersHandler(queries)
	companiesHandler := handlers.NewCompaniesHandler(queries, reportService, purger)
	nbsHandler := handlers.NewNBSHandler(queries)

	app := fiber.New(fiber.Config{
		AppName:      "classtrib API",
		ErrorHandler: utils.ErrorHandler,
		BodyLimit:    int(cfg.MaxUploadBytes),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.CORS(cfg.AllowedOrigins))

	api := app.Group("/api")

	api.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "classtrib-api",
		})
	})
	api.Post("/login", authHandler.Login)

	protected := api.Group("", middleware.JWTAuth(tokens))
	protected.Get("/me", authHandler.Me)
	protected.Post("/upload", uploadHandler.Upload)
	protected.Get("/nbs", nbsHandler.Search)
	protected.Get("/companies", companiesHandler.ListCompanies)

	company := protected.Group("/companies/:id", middleware.CompanyAccess(queries))
	company.Get("/last-upload", uploadHandler.LastUpload)
	company.Get("/report", reportHandler.GetReport)
	company.Get("/report/export", reportHandler.ExportReport)

	admin := protected.Group("", middleware.RequireAdmin())
	admin.Get("/users", usersHandler.ListUsers)
	admin.Post("/users", usersHandler.CreateUser)
	admin.Delete("/users/:id", usersHandler.DeleteUser)
	admin.Post("/companies", companiesHandler.CreateCompany)
	admin.Delete("/companies/:id", companiesHandler.DeleteCompany)
	admin.Get("/companies/:id/users", companiesHandler.ListUsers)
	admin.Post("/companies/:id/users/:userId", companiesHandler.AddUser)
	admin.Delete("/companies/:id/users/:userId", companiesHandler.RemoveUser)

	if cfg.StaticDir != "" {
		mountFrontend(app, cfg.StaticDir)
	}

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Log.Info().Str("addr", addr).Str("environment", cfg.Environment).Msg("classtrib API listening")
		if err := app.Listen(addr); err != nil {
			logger.Log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("Shutting down")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		logger.Log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// bootstrapAdmin makes sure the configured admin account exists
func bootstrapAdmin(ctx context.Context, queries *db.Queries, cfg *config.Config) error {
	if cfg.AdminUser == "" || cfg.AdminPassword == "" {
		return nil
	}

	hash, err := services.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	user, err := queries.EnsureAdmin(ctx, cfg.AdminUser, hash)
	if err != nil {
		return err
	}

	logger.Log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("Admin user ready")
	return nil
}

// mountFrontend serves the built SPA; unknown non-API paths fall back to index.html
func mountFrontend(app *fiber.App, dir string) {
	index := filepath.Join(dir, "index.html")

	app.Get("/*", static.New(dir))
	app.Get("/*", func(c fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return fiber.ErrNotFound
		}
		return c.SendFile(index)
	})

	logger.Log.Info().Str("dir", dir).Msg("Serving frontend")
}
