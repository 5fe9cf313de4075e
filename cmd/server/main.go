package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"donation-platform/internal/config"
	"donation-platform/internal/database"
	"donation-platform/internal/handlers"
	"donation-platform/internal/middleware"
	"donation-platform/internal/repositories"
	"donation-platform/internal/server"
	"donation-platform/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	log.Println("Database connection established successfully")

	if err := db.RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Repositories
	campaignRepo := repositories.NewCampaignRepository(db.DB)
	programRepo := repositories.NewProgramRepository(db.DB)
	patientRepo := repositories.NewPatientRepository(db.DB)
	donationRepo := repositories.NewDonationRepository(db.DB)
	userRepo := repositories.NewUserRepository(db.DB)
	auditRepo := repositories.NewAuditLogRepository(db.DB)

	// Supporting services
	storageService := services.NewStorageService(cfg)
	imageService := services.NewImageService(storageService)
	targetCache := services.NewTargetCache(cfg.Redis)
	receipts := services.NewReceiptSender(cfg)

	gateway, err := services.NewPaymentGateway(cfg)
	if err != nil {
		log.Fatal("Failed to configure payment gateway:", err)
	}
	log.Printf("Payment gateway: %s", gateway.Name())

	// Only the configured gateway may post to its webhook
	var paystackHooks handlers.PaystackWebhookVerifier
	var midtransHooks handlers.MidtransSignatureVerifier
	switch g := gateway.(type) {
	case *services.PaystackService:
		paystackHooks = g
	case *services.MidtransService:
		midtransHooks = g
	}

	// Domain services
	targetService := services.NewTargetService(campaignRepo, programRepo, patientRepo, imageService, targetCache,
		cfg.Donation.DefaultPerPage, cfg.Donation.MaxPerPage)
	donationService := services.NewDonationService(donationRepo, targetService, gateway, receipts, services.DonationConfig{
		MinimumAmount:  cfg.Donation.MinimumAmount,
		Currency:       cfg.Donation.Currency,
		PublicURL:      cfg.Server.PublicURL,
		PendingTTL:     cfg.Donation.PendingTTL,
		DefaultPerPage: cfg.Donation.DefaultPerPage,
		MaxPerPage:     cfg.Donation.MaxPerPage,
	})
	authService := services.NewAuthService(userRepo)
	auditService := services.NewAuditService(auditRepo)

	scheduler, err := services.NewScheduler(cfg.Donation.ExpirySchedule, donationService)
	if err != nil {
		log.Fatal("Failed to configure scheduler:", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Sessions and rate limits
	sessionStore := middleware.NewSessionStore(cfg.Session.Secret, cfg.IsProduction())
	authMiddleware := middleware.NewAuthMiddleware(authService, sessionStore)
	csrfMiddleware := middleware.NewCSRFMiddleware(sessionStore)

	initiateLimiter := middleware.NewRateLimiter(cfg.Donation.InitiateLimit, cfg.Donation.InitiateWindow)
	defer initiateLimiter.Close()
	loginLimiter := middleware.NewRateLimiter(5, 15*time.Minute)
	defer loginLimiter.Close()

	router := server.NewRouter(server.Handlers{
		Public:    handlers.NewPublicHandler(targetService),
		Donations: handlers.NewDonationHandler(donationService, paystackHooks, midtransHooks),
		Auth:      handlers.NewAuthHandler(authService, authMiddleware, auditService),
		Admin:     handlers.NewAdminHandler(targetService, donationService, auditService),
	}, authMiddleware, csrfMiddleware, server.Options{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		UploadsDir:      services.UploadsDir,
		InitiateLimiter: initiateLimiter,
		LoginLimiter:    loginLimiter,
	})

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s (Environment: %s)", serverAddr, cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
