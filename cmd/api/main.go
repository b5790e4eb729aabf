package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-notification-dispatch/internal/application/delivery"
	"github.com/go-notification-dispatch/internal/config"
	"github.com/go-notification-dispatch/internal/infrastructure/dynamo"
	"github.com/go-notification-dispatch/internal/infrastructure/fcm"
	"github.com/go-notification-dispatch/internal/infrastructure/identity"
	"github.com/go-notification-dispatch/internal/infrastructure/invitation"
	jwtinfra "github.com/go-notification-dispatch/internal/infrastructure/jwt"
	"github.com/go-notification-dispatch/internal/infrastructure/memory"
	"github.com/go-notification-dispatch/internal/infrastructure/postgres"
	"github.com/go-notification-dispatch/internal/infrastructure/sns"
	transporthttp "github.com/go-notification-dispatch/internal/transport/http"
	"github.com/go-notification-dispatch/internal/transport/http/middleware"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx := context.Background()
	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid timezone", "err", err)
		os.Exit(1)
	}

	deps := &transporthttp.Deps{Location: loc}
	closeStorage, err := setupStorage(ctx, cfg, deps)
	if err != nil {
		slog.Error("storage setup failed", "driver", cfg.StorageDriver, "err", err)
		os.Exit(1)
	}
	defer closeStorage()

	deps.PushProvider = setupPushProvider(ctx, cfg)

	if deps.Verifier, err = setupVerifier(cfg); err != nil {
		slog.Error("session verifier setup failed", "verifier", cfg.SessionVerifier, "err", err)
		os.Exit(1)
	}

	if cfg.InvitationFilterEnabled {
		deps.Invitations = invitation.NewClient(cfg.InvitationsServiceURL, cfg.UpstreamTimeout)
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "storage", cfg.StorageDriver, "push", cfg.PushProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("server stopped")
}

// setupStorage fills the store fields of deps and returns a cleanup func.
func setupStorage(ctx context.Context, cfg *config.Config, deps *transporthttp.Deps) (func(), error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		deps.NotificationRepo = postgres.NewNotificationStore(pool, deps.Location)
		deps.TypeRepo = postgres.NewTypeStore(pool)
		deps.DeviceRepo = postgres.NewDeviceStore(pool)
		return pool.Close, nil

	case config.StorageMemory:
		slog.Warn("using in-memory storage, data is lost on restart")
		deps.NotificationRepo = memory.NewNotificationStore()
		deps.TypeRepo = memory.NewTypeStore()
		deps.DeviceRepo = memory.NewDeviceStore()
		return func() {}, nil

	default:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		// Bootstrap DynamoDB tables (creates them if they don't exist).
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		counters := dynamo.NewCounterRepo(client, cfg.DynamoTables.Counters)
		deps.NotificationRepo = dynamo.NewNotificationRepo(client, cfg.DynamoTables.Notifications, counters)
		deps.TypeRepo = dynamo.NewTypeRepo(client, cfg.DynamoTables.NotificationTypes)
		deps.DeviceRepo = dynamo.NewDeviceRepo(client, cfg.DynamoTables.Devices)
		return func() {}, nil
	}
}

// setupPushProvider never fails: a provider that cannot start is replaced by
// one that reports every send as unavailable, so notifications are still stored.
func setupPushProvider(ctx context.Context, cfg *config.Config) delivery.Provider {
	switch cfg.PushProvider {
	case config.PushFCM:
		client, err := fcm.New(ctx, cfg.FCMCredentialsFile, cfg.FCMProjectID)
		if err != nil {
			slog.Warn("FCM not available", "err", err)
			return delivery.Unavailable{Reason: err.Error()}
		}
		return client
	case config.PushSNS:
		sender, err := sns.NewSender(ctx, cfg)
		if err != nil {
			slog.Warn("SNS not available", "err", err)
			return delivery.Unavailable{Reason: err.Error()}
		}
		return sender
	default:
		return delivery.Unavailable{Reason: "push disabled"}
	}
}

func setupVerifier(cfg *config.Config) (middleware.Verifier, error) {
	if cfg.SessionVerifier == config.VerifierJWT {
		return jwtinfra.NewProvider(cfg)
	}
	if cfg.UserServiceURL == "" {
		return nil, errors.New("USER_SERVICE_URL is required for the http session verifier")
	}
	return identity.NewClient(cfg.UserServiceURL, cfg.UpstreamTimeout), nil
}
