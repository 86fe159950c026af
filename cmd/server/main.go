package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clubstack/config"
	authadapter "clubstack/internal/adapters/auth"
	emailadapter "clubstack/internal/adapters/email"
	"clubstack/internal/adapters/payments"
	httpdelivery "clubstack/internal/delivery/http"
	"clubstack/internal/delivery/http/controllers"
	"clubstack/internal/delivery/http/middleware"
	"clubstack/internal/repository/postgres"
	"clubstack/internal/services"
)

const bcryptCost = 12

// @title Clubstack API
// @version 1.0
// @description Workshop lifecycle, registration, refund, and membership API for club management.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := config.NewLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := postgres.Open(ctx, cfg.DBUrl)
	cancel()
	if err != nil {
		logger.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.RunMigrations(cfg.DBUrl, cfg.MigrationsDir); err != nil {
		logger.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// Repositories
	txManager := postgres.NewTxManager(db)
	workshopRepo := postgres.NewWorkshopRepository(db)
	registrationRepo := postgres.NewRegistrationRepository(db)
	interestRepo := postgres.NewInterestRepository(db)
	refundRepo := postgres.NewRefundRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)

	// Adapters
	jwtProvider := authadapter.NewJWTProvider(cfg.JWTSecret)
	hasher := authadapter.NewBcryptHasher(bcryptCost)
	paymentProvider := payments.NewStripeProvider(cfg.StripeSecretKey)
	mailer, err := emailadapter.NewMailer(emailadapter.MailerConfig{
		Provider:    cfg.Mailer.Provider,
		FromAddress: cfg.Mailer.FromAddress,
		FromName:    cfg.Mailer.FromName,
		SES: emailadapter.SESConfig{
			Region:             cfg.Mailer.SES.Region,
			AccessKeyID:        cfg.Mailer.SES.AccessKeyID,
			SecretAccessKey:    cfg.Mailer.SES.SecretAccessKey,
			InsecureSkipVerify: cfg.Mailer.SES.InsecureSkipVerify,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	renderer := emailadapter.NewTemplateRenderer()

	// Services
	emailService := services.NewEmailService(mailer, renderer, logger)
	authService := services.NewAuthService(userRepo, roleRepo, hasher, jwtProvider, cfg.JWTExpiry)
	workshopService := services.NewWorkshopService(txManager, workshopRepo, registrationRepo, paymentProvider, emailService, cfg.ContextTimeout)
	registrationService := services.NewRegistrationService(txManager, workshopRepo, registrationRepo, interestRepo, paymentProvider, cfg.ContextTimeout)
	refundService := services.NewRefundService(txManager, workshopRepo, registrationRepo, refundRepo, paymentProvider, cfg.ContextTimeout)
	attendanceService := services.NewAttendanceService(txManager, workshopRepo, registrationRepo, cfg.ContextTimeout)
	settingsService := services.NewSettingsService(settingsRepo, cfg.ContextTimeout)
	membershipService := services.NewMembershipService(settingsRepo, paymentProvider, cfg.ContextTimeout)

	// Controllers
	authController := controllers.NewAuthController(logger, authService)
	workshopController := controllers.NewWorkshopController(logger, workshopService)
	registrationController := controllers.NewRegistrationController(logger, registrationService)
	refundController := controllers.NewRefundController(logger, refundService)
	attendanceController := controllers.NewAttendanceController(logger, attendanceService)
	settingsController := controllers.NewSettingsController(logger, settingsService)
	membershipController := controllers.NewMembershipController(logger, membershipService)

	mux := httpdelivery.NewRouter(
		jwtProvider,
		authController,
		workshopController,
		registrationController,
		refundController,
		attendanceController,
		settingsController,
		membershipController,
	)

	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "err", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
	logger.Info("shutdown complete")
}
