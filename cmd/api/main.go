package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jeremyjsx/miniblog/internal/auth"
	"github.com/jeremyjsx/miniblog/internal/config"
	"github.com/jeremyjsx/miniblog/internal/db"
	"github.com/jeremyjsx/miniblog/internal/events"
	"github.com/jeremyjsx/miniblog/internal/handlers"
	"github.com/jeremyjsx/miniblog/internal/metaweblog"
	"github.com/jeremyjsx/miniblog/internal/posts"
	"github.com/jeremyjsx/miniblog/internal/render"
	"github.com/jeremyjsx/miniblog/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// miniblog hash-password <password> prints a value for ADMIN_PASSWORD_HASH.
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := auth.HashPassword(os.Args[2])
		if err != nil {
			logger.Error("hash password failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if err := run(logger, config.Load()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, cfg *config.Config) error {
	ctx := context.Background()

	blobs, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}

	var (
		repo posts.Repository
		conn *sql.DB
	)
	if cfg.DBDriver != "" {
		dsn := cfg.DatabaseURL
		if dsn == "" && cfg.DBDriver == db.DriverSQLite {
			if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			dsn = filepath.Join(cfg.DataDir, "miniblog.db")
		}
		conn, err = db.Open(ctx, cfg.DBDriver, dsn)
		if err != nil {
			return err
		}
		defer conn.Close()
		repo = posts.NewSQLRepository(conn, blobs)
		logger.Info("using sql backend", "driver", cfg.DBDriver)
	} else {
		repo = posts.NewBlobRepository(blobs)
		logger.Info("using blob backend")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		p, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := p.Close(); err != nil {
				logger.Warn("close publisher", "error", err)
			}
		}()
		publisher = p
	}

	svc, err := posts.NewService(ctx, repo,
		posts.WithLogger(logger),
		posts.WithPublisher(publisher),
	)
	if err != nil {
		return err
	}

	validator := auth.NewValidator(cfg.AdminUsername, cfg.AdminPasswordHash)
	if !validator.Enabled() && cfg.APIKey == "" {
		logger.Warn("no admin credentials configured; admin routes will reject every request")
	}

	handler := handlers.NewRouter(handlers.RouterDeps{
		Posts:      svc,
		Repository: repo,
		MetaWeblog: metaweblog.NewService(svc, validator, cfg.BlogName, cfg.BaseURL, logger),
		Renderer:   render.NewRenderer(cfg.BaseURL),
		Health: &handlers.HealthDeps{
			DB:          conn,
			Storage:     blobs,
			RabbitMQURL: cfg.RabbitMQURL,
		},
		APIKey: cfg.APIKey,
		Admin:  validator,
		Logger: logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("miniblog: server started", "port", cfg.Port, "blog", cfg.BlogName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.S3Bucket != "" {
		client, err := storage.NewS3Client(ctx, cfg.AWSRegion, cfg.S3Endpoint)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Storage(client, cfg.S3Bucket), nil
	}
	fs, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return fs, nil
}
