package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "equiprent-backend/internal/api/http"
	"equiprent-backend/internal/api/http/middleware"
	"equiprent-backend/internal/api/ws"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/jobs"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/repository/postgres"
	"equiprent-backend/internal/repository/redis"
	"equiprent-backend/internal/scheduler"
	"equiprent-backend/internal/security"
	"equiprent-backend/internal/service"
	"equiprent-backend/internal/storage"

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
)

const (
	realtimeChannel = "equiprent:realtime"

	mailWorkers    = 2
	mailQueueSize  = 256
	mailMaxRetries = 3
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if err := logger.InitializeWithOptions(cfg.Log.Level, cfg.Log.Format, logger.Options{File: cfg.Log.File, MaxAgeDays: cfg.Log.MaxAgeDays}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("Starting EquipRent backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Email configuration", "provider", cfg.Email.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(db); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			log.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database migrations applied")
	}

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Realtime: local hub, optionally fanned out across instances through Redis
	hub := ws.NewHub()
	var realtime service.Realtime = hub
	var unread repository.UnreadCounter
	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("Failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		logger.Info("Redis connection established", "addr", cfg.Redis.Addr)

		unread = redis.NewUnreadCache(redisClient)
		bridge := redis.NewBridge(redisClient, realtimeChannel, hub)
		realtime = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil {
				logger.Error("Realtime bridge stopped", "error", err)
			}
		}()
	} else {
		logger.Info("Redis not configured, realtime delivery is local to this instance")
	}

	// Initialize Storage Service
	storageService, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Error("Failed to initialize storage", "type", cfg.Storage.Type, "error", err)
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	// Initialize Email Service
	mailSender, err := service.NewMailSender(cfg.Email)
	if err != nil {
		logger.Error("Failed to initialize mail sender", "error", err)
		log.Fatalf("Failed to initialize mail sender: %v", err)
	}
	mailQueue := service.NewMailQueue(mailSender, mailWorkers, mailQueueSize, mailMaxRetries)
	mailQueue.Start(ctx)
	emailSvc := service.NewEmailService(mailQueue, cfg.Email.FromName)

	references, err := service.NewReferenceGenerator(cfg.Server.NodeID)
	if err != nil {
		log.Fatalf("Failed to initialize reference generator: %v", err)
	}

	// Initialize Security
	accessTTL := time.Duration(cfg.JWT.AccessTokenExpiry) * time.Minute
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, accessTTL, time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Minute)

	// Initialize Services
	noteSvc := service.NewNotificationService(store.NotificationRepository, store.UserRepository, unread, realtime)
	settingsSvc := service.NewSystemConfigService(store.SystemConfigRepository)
	authSvc := service.NewAuthService(store.UserRepository, tokenManager, noteSvc, emailSvc, accessTTL)
	userSvc := service.NewUserService(store.UserRepository, cfg.MaxUploadBytes(), cfg.Storage.AllowedTypes)
	rentalSvc := service.NewRentalService(
		store.RentalRepository,
		store.EquipmentRepository,
		store.UserRepository,
		store.UploadRepository,
		settingsSvc,
		noteSvc,
		emailSvc,
		references,
		cfg.Rental.MaxDays,
	)
	adminSvc := service.NewAdminService(store.UserRepository, rentalSvc, noteSvc, emailSvc)
	equipmentSvc := service.NewEquipmentService(store.EquipmentRepository, store.CategoryRepository, store.RentalRepository, noteSvc)
	moderationSvc := service.NewModerationService(store.EquipmentRepository, store.UserRepository, store.StatsRepository, noteSvc, emailSvc)
	editSvc := service.NewEquipmentEditService(store.EquipmentEditRepository, store.EquipmentRepository, store.CategoryRepository, store.UserRepository, noteSvc, emailSvc)
	chatSvc := service.NewChatService(store.ChatRepository, store.UserRepository, store.EquipmentRepository, realtime)
	favoriteSvc := service.NewFavoriteService(store.FavoriteRepository, store.EquipmentRepository)
	cartSvc := service.NewCartService(store.CartRepository, store.EquipmentRepository, rentalSvc)
	reviewSvc := service.NewReviewService(store.ReviewRepository, store.RentalRepository)
	reportSvc := service.NewReportService(store.ReportRepository, noteSvc)
	categorySvc := service.NewCategoryService(store.CategoryRepository, store.EquipmentRepository)
	contentSvc := service.NewContentService(store.ContentRepository)
	addressSvc := service.NewAddressService(store.AddressRepository)
	bankSvc := service.NewBankInfoService(store.BankInfoRepository)
	statsSvc := service.NewStatsService(store.StatsRepository)
	uploadSvc := service.NewUploadService(
		store.UploadRepository,
		storageService,
		cfg.MaxUploadBytes(),
		cfg.Storage.AllowedTypes,
		time.Duration(cfg.Storage.S3.URLExpiryMinutes)*time.Minute,
	)

	// Initialize HTTP handlers
	handlers := httpapi.Handlers{
		Auth:         httpapi.NewAuthHandler(authSvc),
		Users:        httpapi.NewUserHandler(userSvc, cfg.MaxUploadBytes()),
		Equipment:    httpapi.NewEquipmentHandler(equipmentSvc, editSvc, moderationSvc),
		Rentals:      httpapi.NewRentalHandler(rentalSvc),
		Admin:        httpapi.NewAdminHandler(adminSvc, statsSvc, settingsSvc),
		Notification: httpapi.NewNotificationHandler(noteSvc),
		Chat:         httpapi.NewChatHandler(chatSvc),
		Marketplace:  httpapi.NewMarketplaceHandler(favoriteSvc, cartSvc, reviewSvc, reportSvc),
		Catalog:      httpapi.NewCatalogHandler(categorySvc, contentSvc, addressSvc, bankSvc),
		Uploads:      httpapi.NewUploadHandler(uploadSvc, storageService, cfg.MaxUploadBytes()),
		Gateway:      ws.NewGateway(hub, authSvc, noteSvc, chatSvc, cfg.CORS.AllowedOrigins),
	}

	checks := map[string]httpapi.HealthCheck{"database": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	limiter.StartCleanup(5*time.Minute, ctx.Done())

	router := httpapi.NewRouter(handlers, middleware.NewAuth(authSvc), limiter, checks)
	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      middleware.NewCORS(cfg.CORS.AllowedOrigins).Handler(router),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}

	// Scheduled jobs can run in-process or in cmd/cronjob
	if cfg.Scheduler.Enabled {
		jobRunner := jobs.NewJobRunner(&jobs.Services{Rental: rentalSvc, Notification: noteSvc}, cfg)
		cronScheduler, err := scheduler.NewScheduler(jobRunner)
		if err != nil {
			logger.Error("Failed to create scheduler", "error", err)
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	mailQueue.Wait()
	logger.Info("Server stopped. Goodbye!")
}
