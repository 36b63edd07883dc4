package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/captura3d/portal-api/internal/auth"
	"github.com/captura3d/portal-api/internal/config"
	"github.com/captura3d/portal-api/internal/db"
	"github.com/captura3d/portal-api/internal/directory"
	"github.com/captura3d/portal-api/internal/gateway"
	internalhttp "github.com/captura3d/portal-api/internal/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api exited with error")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	mockDir, err := directory.NewMock()
	if err != nil {
		return fmt.Errorf("mock directory: %w", err)
	}
	mockBackend := gateway.NewMockBackend(mockDir, cfg.RefreshTTL)

	var idpBackend gateway.Backend
	if cfg.AuthBackend == config.BackendIDP {
		pool, err := db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer pool.Close()

		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		idpClient, err := directory.NewIDPClient(directory.IDPConfig{
			BaseURL: cfg.IDPBaseURL,
			APIKey:  cfg.IDPAPIKey,
		})
		if err != nil {
			return fmt.Errorf("idp client: %w", err)
		}

		profiles := directory.NewPostgresProfiles(pool)
		jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
		idpBackend = gateway.NewIDPBackend(idpClient, profiles, redisClient, jwtManager, cfg.RefreshTTL)
	}

	gw := gateway.New(mockBackend, idpBackend, func() gateway.Mode {
		return gateway.Mode(cfg.AuthBackend)
	})

	handler := internalhttp.NewRouter(cfg, gw)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("backend", cfg.AuthBackend).Msgf("API listening on :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
