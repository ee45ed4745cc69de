package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/markdesk/markdesk-api/internal/config"
	"github.com/markdesk/markdesk-api/internal/database"
	"github.com/markdesk/markdesk-api/internal/handler"
	"github.com/markdesk/markdesk-api/internal/middleware"
	"github.com/markdesk/markdesk-api/internal/models"
	"github.com/markdesk/markdesk-api/internal/observability"
	"github.com/markdesk/markdesk-api/internal/repository"
	"github.com/markdesk/markdesk-api/internal/router"
	"github.com/markdesk/markdesk-api/internal/service"
	"github.com/markdesk/markdesk-api/internal/session"
	"github.com/markdesk/markdesk-api/pkg/annotate"
	cloud "github.com/markdesk/markdesk-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Warn().Err(err).Msg("postgres unavailable, falling back to sqlite")
		db, err = database.ConnectSQLite("")
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
	}

	if err := db.AutoMigrate(&models.GradingSession{}, &models.Script{}, &models.SessionSnapshot{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, statistics caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	var storage service.ScriptStorage
	if cfg.CloudinaryCloudName != "" {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		storage = uploader
	} else {
		logger.Warn().Msg("cloudinary not configured, scripts served from database")
	}

	var suggester annotate.Suggester
	if cfg.AnnotatorAPIKey != "" {
		suggester, err = annotate.NewOpenAISuggester(annotate.OpenAIConfig{
			APIKey: cfg.AnnotatorAPIKey,
			Model:  cfg.AnnotatorModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create annotation suggester: %v", err)
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	sessions := session.NewManager()

	sessionRepo := repository.NewSessionRepository(db)
	scriptRepo := repository.NewScriptRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	activityService := service.NewActivityService(redisClient, cfg.EventChannelBase, natsConn, logger)
	statsService := service.NewStatsService(sessions, redisClient, cfg.StatsCacheTTL, logger)
	sessionService := service.NewSessionService(sessions, sessionRepo, snapshotRepo, validate, logger)
	schemeService := service.NewSchemeService(sessions, statsService, activityService, sessionService, validate, logger)
	rubricService := service.NewRubricService(sessions, statsService, activityService, suggester, validate, logger)
	gradingService := service.NewGradingService(sessions, statsService, activityService, sessionService, validate, logger)
	scriptService := service.NewScriptService(sessions, scriptRepo, storage, activityService, cfg.UploadMaxSizeMB, logger)
	renderService := service.NewRenderService(sessions, scriptRepo, logger)
	exportService := service.NewExportService(sessions, sessionRepo, scriptRepo, logger)

	runCtx, stopServices := context.WithCancel(context.Background())
	defer stopServices()
	activityService.Start(runCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	app.Get("/metrics", observability.MetricsHandler())

	router.Register(app, cfg, router.Dependencies{
		SessionHandler:  handler.NewSessionHandler(sessionService, logger),
		SchemeHandler:   handler.NewSchemeHandler(schemeService, logger),
		ScriptHandler:   handler.NewScriptHandler(scriptService, renderService, logger),
		RubricHandler:   handler.NewRubricHandler(rubricService, logger),
		GradingHandler:  handler.NewGradingHandler(gradingService, logger),
		StatsHandler:    handler.NewStatsHandler(statsService, logger),
		ExportHandler:   handler.NewExportHandler(exportService, logger),
		ActivityHandler: handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
