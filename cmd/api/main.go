package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/tillbook-api/internal/application/service"
	"github.com/sangkips/tillbook-api/internal/config"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tillbook-api/internal/domain/repository"
	"github.com/sangkips/tillbook-api/internal/infrastructure/database"
	"github.com/sangkips/tillbook-api/internal/infrastructure/draftstore"
	"github.com/sangkips/tillbook-api/internal/infrastructure/repository"
	"github.com/sangkips/tillbook-api/internal/infrastructure/sqlite"
	"github.com/sangkips/tillbook-api/internal/presentation/http/handler"
	"github.com/sangkips/tillbook-api/internal/presentation/http/routes"
	"github.com/sangkips/tillbook-api/pkg/email"
	"github.com/sangkips/tillbook-api/pkg/oauth"
	"github.com/sangkips/tillbook-api/pkg/printer"
	"github.com/sangkips/tillbook-api/pkg/utils"
)

type repositories struct {
	users       domainRepo.UserRepository
	items       domainRepo.ItemRepository
	receipts    domainRepo.ReceiptRepository
	idempotency domainRepo.IdempotencyRepository
	close       func() error
}

// openRepositories connects to the configured database. Postgres goes
// through gorm, the embedded SQLite file through sqlx.
func openRepositories(cfg *config.Config) (*repositories, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := database.NewSQLiteDB(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:       sqlite.NewUserRepository(db),
			items:       sqlite.NewItemRepository(db),
			receipts:    sqlite.NewReceiptRepository(db),
			idempotency: sqlite.NewIdempotencyRepository(db),
			close:       db.Close,
		}, nil
	default:
		db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:       repository.NewUserRepository(db),
			items:       repository.NewItemRepository(db),
			receipts:    repository.NewReceiptRepository(db),
			idempotency: repository.NewIdempotencyRepository(db),
			close:       sqlDB.Close,
		}, nil
	}
}

type draftRepository interface {
	domainRepo.DraftRepository
	Close() error
}

func openDraftStore(cfg config.DraftConfig) (draftRepository, error) {
	if cfg.Store == "badger" {
		return draftstore.OpenBadgerStore(cfg.Dir, cfg.TTL)
	}
	return draftstore.NewMemoryStore(cfg.TTL), nil
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	repos, err := openRepositories(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repos.close()

	drafts, err := openDraftStore(cfg.Drafts)
	if err != nil {
		log.Fatalf("Failed to open draft store: %v", err)
	}
	defer drafts.Close()

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize email service
	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
	})

	// Initialize Google OAuth service
	googleOAuthService := oauth.NewGoogleOAuthService(oauth.GoogleOAuthConfig{
		ClientID:           cfg.OAuth.GoogleClientID,
		ClientSecret:       cfg.OAuth.GoogleClientSecret,
		RedirectURL:        cfg.OAuth.GoogleRedirectURL,
		FrontendSuccessURL: cfg.OAuth.FrontendSuccessURL,
		FrontendErrorURL:   cfg.OAuth.FrontendErrorURL,
		StateSecret:        cfg.JWT.Secret,
	})

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(
		cfg.Printer.Type,
		cfg.Printer.USBPath,
		cfg.Printer.Address,
	)
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = printer.NewNullPrinter()
	}

	storeDefaults := entity.StoreConfig{
		CurrencySymbol: cfg.Store.CurrencySymbol,
		MobilePrefix:   cfg.Store.MobilePrefix,
	}.WithDefaults()

	// Initialize services
	authService := service.NewAuthService(repos.users, jwtManager, googleOAuthService, storeDefaults)
	itemService := service.NewItemService(repos.items)
	receiptService := service.NewReceiptService(repos.receipts, repos.items, repos.users, emailService)
	draftService := service.NewDraftService(drafts, itemService, receiptService)
	exportService := service.NewExportService(receiptService, cfg.Pagination.PageSize, cfg.Pagination.Timeout)
	printerService := service.NewPrinterService(thermalPrinter, receiptService, cfg.Printer.CharWidth)
	dashboardService := service.NewDashboardService(repos.receipts)
	settingsService := service.NewSettingsService(repos.users)
	accountService := service.NewAccountService(repos.users, repos.items, repos.receipts, drafts, repos.idempotency)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:      handler.NewAuthHandler(authService, googleOAuthService),
		Item:      handler.NewItemHandler(itemService),
		Receipt:   handler.NewReceiptHandler(receiptService, exportService, printerService),
		Draft:     handler.NewDraftHandler(draftService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Settings:  handler.NewSettingsHandler(settingsService),
		Printer:   handler.NewPrinterHandler(printerService),
		Account:   handler.NewAccountHandler(accountService),
	}

	rateLimiter := routes.NewRateLimiter(cfg.RateLimit)
	defer rateLimiter.Stop()

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: repos.idempotency,
		RateLimiter:     rateLimiter,
	})

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s (database: %s, drafts: %s)", cfg.App.Env, cfg.Database.Driver, cfg.Drafts.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}
