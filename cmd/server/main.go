package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tunevest/songshare-ledger/internal/api"
	"github.com/tunevest/songshare-ledger/internal/config"
	"github.com/tunevest/songshare-ledger/internal/database"
	"github.com/tunevest/songshare-ledger/internal/repository"
	"github.com/tunevest/songshare-ledger/internal/scheduler"
	"github.com/tunevest/songshare-ledger/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Apply pending schema migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Create repositories
	songRepo := repository.NewFractionalSongRepository(db)
	ownershipRepo := repository.NewShareOwnershipRepository(db)
	transactionRepo := repository.NewShareTransactionRepository(db)
	distributionRepo := repository.NewRevenueDistributionRepository(db)
	priceRepo := repository.NewPriceHistoryRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Create services
	locks := service.NewSongLocks()
	systemService := service.NewSystemService(db)
	ownershipService := service.NewOwnershipService(
		db,
		songRepo,
		ownershipRepo,
		transactionRepo,
		priceRepo,
		outboxRepo,
		locks,
	)
	distributionService := service.NewDistributionService(
		db,
		songRepo,
		ownershipRepo,
		distributionRepo,
		outboxRepo,
		locks,
		cfg.Ledger.DefaultPlatformFeePct,
	)
	catalogService := service.NewCatalogService(songRepo, ownershipRepo, priceRepo)
	holdingsService := service.NewHoldingsService(ownershipRepo)
	pricingService := service.NewPricingService(songRepo, priceRepo)
	dispatcher := service.NewOutboxDispatcher(outboxRepo, settingsRepo, cfg.Webhook.URL, cfg.Webhook.FernetKey)

	if dispatcher.Enabled() {
		if err := dispatcher.EnsureWebhookSecret(context.Background()); err != nil {
			log.Fatalf("Failed to provision webhook secret: %v", err)
		}
	}

	// Start background jobs
	jobs, err := scheduler.New(cfg.Scheduler, dispatcher, pricingService)
	if err != nil {
		log.Fatalf("Failed to set up scheduler: %v", err)
	}
	jobs.Start()

	// Create router
	router := api.NewRouter(api.Services{
		System:       systemService,
		Ownership:    ownershipService,
		Catalog:      catalogService,
		Holdings:     holdingsService,
		Distribution: distributionService,
	}, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	jobs.Stop()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
