package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"complaint-service/config"
	"complaint-service/internal/db"
	"complaint-service/internal/handler"
	"complaint-service/internal/logger"
	"complaint-service/internal/mailer"
	"complaint-service/internal/messaging"
	"complaint-service/internal/middleware"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
	"complaint-service/internal/service"
	"complaint-service/internal/storage"
)

const (
	mailAttempts    = 3
	mailRetryDelay  = 2 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	configPath := os.Getenv("COMPLAINTS_CONFIG")
	if configPath == "" {
		configPath = "config/config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()
	logger.Info("Connected to database")

	if err := db.Migrate(conn); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(conn)
	departmentRepo := repository.NewDepartmentRepository(conn)
	complaintRepo := repository.NewComplaintRepository(conn)
	feedbackRepo := repository.NewFeedbackRepository(conn)
	notificationRepo := repository.NewNotificationRepository(conn)

	if err := bootstrapSuperAdmin(ctx, cfg.Bootstrap, userRepo); err != nil {
		logger.Fatal("Failed to seed super admin", zap.Error(err))
	}

	files, err := storage.NewFileStore(cfg.Uploads.Dir, cfg.Uploads.MaxFiles, cfg.Uploads.MaxTotalBytes)
	if err != nil {
		logger.Fatal("Failed to prepare upload directory", zap.Error(err))
	}

	var mail mailer.Mailer = mailer.LogMailer{}
	if cfg.SMTP.Enabled {
		mail = mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	}
	mail = mailer.NewRetryMailer(mail, mailAttempts, mailRetryDelay)

	sseHub := messaging.NewSSEHub()
	go sseHub.Run(ctx)

	// Services
	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpirationHours)
	authService := service.NewAuthService(userRepo, tokens, mail, cfg.OTP.Length, cfg.OTP.TTL())
	notificationService := service.NewNotificationService(notificationRepo, sseHub)
	fanout := service.NewFanoutService(userRepo, notificationService, mail, cfg.Client.BaseURL)

	var (
		dispatcher service.Dispatcher
		local      *messaging.LocalDispatcher
		consumer   *messaging.Consumer
		worker     *messaging.OutboxWorker
		rmq        *messaging.RabbitMQ
	)
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.NewRabbitMQ(cfg.RabbitMQ.Host, cfg.RabbitMQ.Port, cfg.RabbitMQ.User, cfg.RabbitMQ.Password)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		logger.Info("Connected to RabbitMQ")

		outboxRepo := repository.NewOutboxRepository(conn)
		processedRepo := repository.NewProcessedMessageRepository(conn)

		consumer = messaging.NewConsumer(rmq, processedRepo, fanout)
		consumer.Start()
		worker = messaging.NewOutboxWorker(outboxRepo, processedRepo, rmq)
		worker.Start()
		logger.Info("Complaint event consumer and outbox worker started")

		dispatcher = messaging.NewRabbitDispatcher(rmq, outboxRepo)
	} else {
		local = messaging.NewLocalDispatcher(fanout)
		dispatcher = local
	}

	departmentService := service.NewDepartmentService(departmentRepo, userRepo, cfg.Admin.MaxAdminsPerDepartment)
	complaintService := service.NewComplaintService(complaintRepo, departmentRepo, files, dispatcher, cfg.Admin.DepartmentScoped)
	userService := service.NewUserService(userRepo, departmentService, complaintRepo, files)
	feedbackService := service.NewFeedbackService(feedbackRepo, complaintRepo, notificationRepo)
	statsService := service.NewStatsService(complaintService, complaintRepo, userRepo, departmentRepo, feedbackRepo)

	routes := handler.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Complaints:    handler.NewComplaintHandler(complaintService),
		Departments:   handler.NewDepartmentHandler(departmentService),
		Feedback:      handler.NewFeedbackHandler(feedbackService),
		Notifications: handler.NewNotificationHandler(notificationService, sseHub),
		Users:         handler.NewUserHandler(userService),
		Stats:         handler.NewStatsHandler(statsService),
		Authenticator: authService,
		DB:            conn,
		UploadsDir:    files.Dir(),
		MaxUpload:     cfg.Uploads.MaxTotalBytes,
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, rate limiting will fail open", zap.Error(err))
		}
		routes.Limiter = middleware.NewRedisLimiter(rdb)
		routes.RateLimit = cfg.Redis.RateLimit
		routes.RateWindow = cfg.Redis.RateWindow
	}

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler.NewRouter(routes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Complaint service starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	if local != nil {
		local.Wait()
	}
	if consumer != nil {
		consumer.Stop()
	}
	if worker != nil {
		worker.Stop()
	}
	if rmq != nil {
		rmq.Close()
	}
	logger.Info("Complaint service stopped")
}

func bootstrapSuperAdmin(ctx context.Context, cfg config.BootstrapConfig, users *repository.UserRepository) error {
	if !cfg.Enabled() {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	created, err := users.EnsureSuperAdmin(ctx, &model.User{
		ID:           uuid.New(),
		Username:     cfg.Username,
		Email:        cfg.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return err
	}
	if created {
		logger.Info("Seeded super admin account", zap.String("email", cfg.Email))
	}
	return nil
}
