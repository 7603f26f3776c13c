package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ceu-go-api/internal/config"
	"github.com/noah-isme/ceu-go-api/internal/database"
	"github.com/noah-isme/ceu-go-api/internal/handler"
	"github.com/noah-isme/ceu-go-api/internal/middleware"
	"github.com/noah-isme/ceu-go-api/internal/repository"
	"github.com/noah-isme/ceu-go-api/internal/router"
	"github.com/noah-isme/ceu-go-api/internal/service"
	"github.com/noah-isme/ceu-go-api/internal/worker"
	"github.com/noah-isme/ceu-go-api/pkg/mailer"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to access database pool")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.Pinger{"database": sqlDB.PingContext}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		logger.Warn().Msg("redis not configured; certificate verification cache disabled")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}
	events := service.NewNATSPublisher(natsConn, cfg.NATSSubject)

	var certificateMailer service.CertificateMailer
	if cfg.MailEnabled() {
		client, err := mailer.New(mailer.Config{APIKey: cfg.MailAPIKey, BaseURL: cfg.MailBaseURL, RetryCount: 2})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create mail client")
		}
		certificateMailer = service.NewTemplatedCertificateMailer(client, cfg.MailFrom, cfg.AccountURL)
	} else {
		logger.Warn().Msg("mail provider not configured; certificate emails are logged only")
		certificateMailer = service.NewLogCertificateMailer(logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)

	certificateService := service.NewCertificateService(service.CertificateServiceConfig{
		Certificates: certificateRepo,
		Courses:      courseRepo,
		Profiles:     profileRepo,
		Mailer:       certificateMailer,
		Events:       events,
		Numbers:      service.NewCertificateNumberGenerator(cfg.CertificatePrefix),
		Cache:        redisClient,
		CacheTTL:     cfg.VerifyCacheTTL,
	}, logger)
	progressService := service.NewProgressService(service.ProgressServiceConfig{
		Progress:     progressRepo,
		Enrollments:  enrollmentRepo,
		Courses:      courseRepo,
		Certificates: certificateService,
		Events:       events,
		Policy: service.CompletionPolicy{
			MinProgressPercent: cfg.CompletionMinProgress,
			MinTimeRatio:       cfg.CompletionMinTimeRatio,
			MinElapsed:         cfg.CompletionMinElapsed,
		},
	}, validate, logger)
	examService := service.NewExamService(progressRepo, enrollmentRepo, courseRepo, validate, cfg.DefaultPassingScore, logger)
	adminService := service.NewAdminService(enrollmentRepo, progressRepo, courseRepo, profileRepo, validate, logger)
	accessService := service.NewAccessService(enrollmentRepo, courseRepo, profileRepo, cfg.GuardAllowMissingCourse, logger)

	retrier := worker.NewCertificateMailRetrier(certificateService, cfg.EmailRetrySchedule, cfg.EmailRetryWindow, logger)
	if err := retrier.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule certificate email retries")
	}
	defer retrier.Stop()

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:        &logger,
		CORSOrigins:   cfg.CORSOrigins,
		AccessLogging: cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		ProgressHandler:    handler.NewProgressHandler(progressService, logger),
		ExamHandler:        handler.NewExamHandler(examService, logger),
		CertificateHandler: handler.NewCertificateHandler(certificateService, logger),
		AdminHandler:       handler.NewAdminHandler(certificateService, adminService, validate, logger),
		AccessEvaluator:    accessService,
		AdminChecker:       adminService,
		Verifier:           middleware.NewTokenVerifier(cfg.JWTSecret),
		HealthChecks:       checks,
		Metrics:            true,
		Logger:             logger,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(ctx, app, logger)
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
