package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/lborres/studysync"
	fiberadapter "github.com/lborres/studysync/adapters/fiber"
	"github.com/lborres/studysync/adapters/gemini"
	pgxadapter "github.com/lborres/studysync/adapters/pgx"
	"github.com/lborres/studysync/pkg/cache"
	"github.com/lborres/studysync/pkg/config"
	"github.com/lborres/studysync/pkg/logger"
	"github.com/lborres/studysync/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

func logFormat() string {
	format := []string{
		// Timestamp & Request ID
		"${time}|${requestid}",

		// Response metadata
		"${status}|${latency}",

		// Client info
		"${ip}",

		// Request details
		"${method}|${path}|${queryParams}",

		// errors
		"${error}",
	}
	return strings.Join(format, "|") + "\n"
}

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "studysync: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Env, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw := pgxadapter.NewGateway(cfg.Database.URI, pgxadapter.WithLogger(log.Named("pgx")))
	defer gw.Close()

	if cfg.Database.Migrate {
		if err := gw.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	var views studysync.ViewCache
	if cfg.Redis.Addr != "" {
		redisViews, err := cache.ConnectRedis(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Cache.TTL,
			Prefix:   "studysync",
		})
		if err != nil {
			return err
		}
		defer redisViews.Close()
		views = redisViews
		log.Info("using redis view cache", zap.String("addr", cfg.Redis.Addr))
	}

	generator, err := gemini.New(ctx, cfg.AI.APIKey, cfg.AI.Model)
	if err != nil {
		return fmt.Errorf("failed to create AI client: %w", err)
	}

	app := fiber.New(fiber.Config{AppName: "studysync"})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     logFormat(),
		TimeFormat: "2006/01/02 15:04:05",
		TimeZone:   "Local",
	}))

	_, err = studysync.New(studysync.Config{
		Secret:      cfg.Auth.Secret,
		Database:    pgxadapter.New(gw),
		HTTP:        fiberadapter.New(app),
		AI:          generator,
		Views:       views,
		CacheConfig: &studysync.CacheConfig{TTL: cfg.Cache.TTL, MaxSize: cfg.Cache.MaxSize},
		SessionConfig: &studysync.SessionConfig{
			MaxAge: cfg.Auth.SessionTTL,
			Secure: cfg.IsProduction(),
		},
		BasePath: cfg.Server.BasePath,
		Logger:   log,
		Metrics:  metrics.New(),
	})
	if err != nil {
		return fmt.Errorf("could not create studysync instance: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("env", cfg.Env))
		errCh <- app.Listen(cfg.Server.Addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
