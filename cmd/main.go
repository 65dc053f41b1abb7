package main

import (
	"bufio"
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/krishnaqnq/todo/internal/auth"
	"github.com/krishnaqnq/todo/internal/cache"
	"github.com/krishnaqnq/todo/internal/config"
	"github.com/krishnaqnq/todo/internal/controller"
	"github.com/krishnaqnq/todo/internal/database"
	"github.com/krishnaqnq/todo/internal/mail"
	"github.com/krishnaqnq/todo/internal/queue"
	"github.com/krishnaqnq/todo/internal/repository"
	"github.com/krishnaqnq/todo/internal/routes"
	"github.com/krishnaqnq/todo/internal/worker"
	"github.com/krishnaqnq/todo/pkg/logger"
)

func main() {
	loadEnvFile(".env")

	ctx := context.Background()
	cfg := config.Get()
	if cfg.JWTSecret == "" {
		logger.Error(ctx, "JWT_SECRET is not set; exiting")
		os.Exit(1)
	}

	pool := database.NewPool(cfg.DatabaseURL, cfg.DBPoolSize)
	if _, err := pool.Get(ctx); err != nil {
		logger.Error(ctx, "Database not available; exiting", "error", err)
		os.Exit(1)
	}
	if err := pool.Migrate(ctx); err != nil {
		logger.Error(ctx, "Schema migration failed", "error", err)
		os.Exit(1)
	}

	users := repository.NewUserRepo(pool)
	todos := repository.NewTodoRepo(pool)
	events := repository.NewEventRepo(pool)

	hasher := auth.NewHasher()
	sessions := auth.NewSessions(cfg.JWTSecret)
	authSvc := auth.NewService(users, hasher, sessions)
	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	resetMgr := auth.NewResetManager(users, mailer, hasher, cfg.BaseURL)

	todoCache := cache.New(ctx, cfg.RedisURL, cfg.RedisPoolSize, cfg.CacheTTL)
	queue.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaParts)
	publisher := queue.NewPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)

	// Audit worker: consumes todo events, records them to the events table
	go worker.Run(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, events)

	router := routes.Router(routes.Deps{
		Sessions: sessions,
		Auth:     controller.NewAuthController(authSvc, resetMgr),
		Todos:    controller.NewTodoController(todos, todoCache, publisher),
		Health:   controller.NewHealthController(pool),
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown error", "error", err)
	}
	_ = publisher.Close()
	_ = pool.Close()
	logger.Info(ctx, "Server stopped")
}

// loadEnvFile reads a .env file and sets env vars (only if not already set).
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`) {
			val = strings.Trim(val, `"`)
		} else if strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
			val = strings.Trim(val, "'")
		}
		if key != "" && os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
}
