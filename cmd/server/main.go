package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/metrics"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/repository"
	"github.com/example/storefront/internal/repository/memory"
	"github.com/example/storefront/internal/routes"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/verification"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(cfg.Environment); err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := routes.Dependencies{
		Config:   cfg,
		Telegram: services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat),
		Metrics:  metrics.New(),
	}

	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := memory.NewStore()
		store.SeedDemoCatalog()
		deps.Users, deps.Addresses, deps.Orders = store.Users(), store.Addresses(), store.Orders()
		deps.Products, deps.Categories = store.Products(), store.Categories()
		logger.Warn("Using in-memory storage, data is lost on restart")
	default:
		db, err := database.Connect(cfg.DatabaseURL, cfg.IsProduction())
		if err != nil {
			logger.Fatal("Database setup failed", zap.Error(err))
		}
		deps.Users = repository.NewUserRepository(db)
		deps.Addresses = repository.NewAddressRepository(db)
		deps.Orders = repository.NewOrderRepository(db)
		deps.Products = repository.NewProductRepository(db)
		deps.Categories = repository.NewCategoryRepository(db)
	}

	switch cfg.CodeStore {
	case config.CodeStoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("Redis unreachable", zap.Error(err))
		}
		deps.Codes = verification.NewRedisStore(client, cfg.CodeTTL)
	default:
		codes := verification.NewMemoryStore(cfg.CodeTTL)
		go codes.StartSweeper(ctx, time.Minute)
		deps.Codes = codes
	}

	if cfg.SMTPHost != "" {
		deps.Mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		deps.Mailer = services.LogMailer{}
		logger.Warn("SMTP_HOST not set, emails will be logged only")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.StartCleanup(ctx, 10*time.Minute)
	deps.RateLimiter = limiter

	app := routes.NewApp(deps)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Starting server", zap.String("port", cfg.AppPort), zap.String("storage", cfg.StorageDriver))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		logger.Fatal("fiber.Listen error", zap.Error(err))
	}
}
