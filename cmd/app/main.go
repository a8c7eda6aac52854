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

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"

	"github.com/BuzzLyutic/todo-list/internal/audit"
	"github.com/BuzzLyutic/todo-list/internal/config"
	"github.com/BuzzLyutic/todo-list/internal/handler"
	"github.com/BuzzLyutic/todo-list/internal/i18n"
	"github.com/BuzzLyutic/todo-list/internal/metrics"
	"github.com/BuzzLyutic/todo-list/internal/repo"
	"github.com/BuzzLyutic/todo-list/internal/service"
	"github.com/BuzzLyutic/todo-list/internal/session"
	"github.com/BuzzLyutic/todo-list/internal/worker"
)

const sessionPurgeInterval = time.Hour

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n\n%s", err, config.Usage())
		os.Exit(1)
	}

	// Подключаем логгер
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := repo.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("Failed to migrate the Database", zap.Error(err))
	}

	// Подключаем БД
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to Database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal("Failed to ping the Database", zap.Error(err))
	}
	logger.Info("Successfully connected to the Database!")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	store, closeStore := sessionStore(ctx, cfg, pool, logger)
	defer closeStore()

	emitter, stopAudit := auditEmitter(ctx, cfg, pool, m, logger)
	defer stopAudit()

	translator, err := i18n.NewTranslator(cfg.DefaultLanguage)
	if err != nil {
		logger.Fatal("Failed to load translations", zap.Error(err))
	}

	router, err := handler.NewRouter(handler.Deps{
		Tasks:          service.NewTaskService(repo.NewTaskRepo(pool), emitter),
		Auth:           service.NewAuthService(repo.NewUserRepo(pool), service.NewPasswordManager(bcrypt.DefaultCost), emitter),
		Sessions:       session.NewManager(store, cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure),
		Translator:     translator,
		Metrics:        m,
		Health:         pool.Ping,
		Logger:         logger,
		SignupRedirect: cfg.SignupRedirect,
		CookieSecure:   cfg.CookieSecure,
	})
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}

	srv := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	cancel()
	logger.Info("Server stopped successfully!")
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// sessionStore picks Redis when REDIS_ADDR is set and PostgreSQL otherwise.
// The PostgreSQL store is purged of expired rows in the background.
func sessionStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) (session.Store, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		logger.Info("Sessions stored in Redis", zap.String("addr", cfg.RedisAddr))
		return session.NewRedisStore(client), func() { client.Close() }
	}

	store := session.NewPostgresStore(pool)
	go func() {
		ticker := time.NewTicker(sessionPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := store.PurgeExpired(ctx)
				if err != nil {
					logger.Error("Failed to purge expired sessions", zap.Error(err))
					continue
				}
				logger.Debug("Purged expired sessions", zap.Int64("count", n))
			}
		}
	}()
	logger.Info("Sessions stored in PostgreSQL")
	return store, func() {}
}

// auditEmitter always logs audit events. With AMQP_URL set it also publishes
// them and runs the worker pool that stores them in audit_events.
func auditEmitter(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, m *metrics.Metrics, logger *zap.Logger) (audit.Emitter, func()) {
	logEmitter := audit.NewLogEmitter(logger)
	if cfg.AMQPURL == "" {
		return logEmitter, func() {}
	}

	client, err := audit.Dial(cfg.AMQPURL, cfg.AuditQueue)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}

	deliveries, err := client.Consume("audit-writer", cfg.AuditWorkers)
	if err != nil {
		logger.Fatal("Failed to consume audit queue", zap.Error(err))
	}

	workers := worker.NewPool(deliveries, repo.NewAuditRepo(pool), logger, cfg.AuditWorkers).WithRecorder(m)
	workers.Start(ctx)

	return audit.Fanout{logEmitter, client.Publisher(logger)}, func() {
		workers.Stop()
		if err := client.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}
}
