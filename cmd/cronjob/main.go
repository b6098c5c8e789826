package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"equiprent-backend/internal/api/ws"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/jobs"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/repository/postgres"
	"equiprent-backend/internal/repository/redis"
	"equiprent-backend/internal/scheduler"
	"equiprent-backend/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'expire-stale-rentals', 'all')")
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
	logger.Info("Starting EquipRent cronjob runner...", "log_level", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Notifications created here reach connected users through the API
	// instances' Redis subscription. Without Redis they are only stored.
	var realtime service.Realtime
	var unread repository.UnreadCounter
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("Failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		unread = redis.NewUnreadCache(client)
		realtime = redis.NewBridge(client, "equiprent:realtime", ws.NewHub())
	}

	// Initialize Services
	mailSender, err := service.NewMailSender(cfg.Email)
	if err != nil {
		logger.Error("Failed to initialize mail sender", "error", err)
		log.Fatalf("Failed to initialize mail sender: %v", err)
	}
	emailService := service.NewEmailService(mailSender, cfg.Email.FromName)

	references, err := service.NewReferenceGenerator(cfg.Server.NodeID)
	if err != nil {
		log.Fatalf("Failed to initialize reference generator: %v", err)
	}

	notificationService := service.NewNotificationService(store.NotificationRepository, store.UserRepository, unread, realtime)
	rentalService := service.NewRentalService(
		store.RentalRepository,
		store.EquipmentRepository,
		store.UserRepository,
		store.UploadRepository,
		service.NewSystemConfigService(store.SystemConfigRepository),
		notificationService,
		emailService,
		references,
		cfg.Rental.MaxDays,
	)

	jobServices := &jobs.Services{
		Rental:       rentalService,
		Notification: notificationService,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to create scheduler", "error", err)
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.", "entries", cronScheduler.Entries())

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

var jobNames = []string{
	"expire-stale-rentals",
	"complete-finished-rentals",
	"purge-read-notifications",
	"all",
}

// runJobOnce runs a specific job once. It reports false for an unknown name.
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "expire-stale-rentals":
		jobRunner.ExpireStaleRentals()
	case "complete-finished-rentals":
		jobRunner.CompleteFinishedRentals()
	case "purge-read-notifications":
		jobRunner.PurgeReadNotifications()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		for _, name := range jobNames {
			fmt.Printf("  - %s\n", name)
		}
		return false
	}
	return true
}
