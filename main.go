package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"utec-gateway/internal/common/logging"
	"utec-gateway/internal/config"
	"utec-gateway/internal/credstore"
	"utec-gateway/internal/crypto"
	"utec-gateway/internal/devices"
	"utec-gateway/internal/executor"
	"utec-gateway/internal/handlers"
	"utec-gateway/internal/scheduler"
	"utec-gateway/internal/server"
	"utec-gateway/internal/settings"
	"utec-gateway/internal/token"
	"utec-gateway/internal/uhome"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; the environment wins when both are present.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if err := logging.InitGlobalLogger(cfg.LogFilePath()); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger := logging.GetGlobalLogger()
	defer logging.MustSync()

	settingsMgr, err := settings.NewManager(filepath.Join(cfg.DataDir, "settings.json"), logger)
	if err != nil {
		return err
	}

	store, cleanup, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	tokens, err := token.NewManager(ctx, store, settingsMgr.Get, logger)
	if err != nil {
		return err
	}

	exec := executor.New(tokens, logger)
	client := uhome.NewClient(exec, settingsMgr.Get, logger)
	cache := devices.NewCache()
	poller := devices.NewPoller(client, cache, logger)

	sched := scheduler.New(tokens, poller, settingsMgr.Get, logger)
	settingsMgr.OnChange(func(old, updated settings.Settings) {
		if updated.PollInterval != old.PollInterval {
			if err := sched.Reschedule(updated.PollInterval); err != nil {
				logger.Warn("Failed to reschedule device poll", logging.Err(err))
			}
		}
		if updated.RefreshBuffer != old.RefreshBuffer {
			tokens.SetRefreshBuffer(updated.RefreshBuffer)
		}
	})
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	router := mux.NewRouter()
	handlers.New(tokens, client, cache, settingsMgr, cfg.LogFilePath(), logger).Register(router)

	srv := server.New(router, cfg.Port, logger)
	errCh := srv.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("Shutting down", logging.String("signal", sig.String()))
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildStore selects and assembles the credential store backend, wrapping it
// with encryption when a passphrase is configured.
func buildStore(cfg *config.Config, logger logging.Logger) (credstore.Store, func(), error) {
	var store credstore.Store
	cleanup := func() {}

	switch cfg.CredentialStore {
	case "file":
		fs, err := credstore.NewFileStore(filepath.Join(cfg.DataDir, "credential.json"))
		if err != nil {
			return nil, nil, err
		}
		store = fs
	case "sqlite":
		ss, err := credstore.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		store = ss
		cleanup = func() { ss.Close() }
	case "redis":
		db, err := strconv.Atoi(cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       db,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis unreachable at %s: %w", cfg.RedisAddress, err)
		}
		store = credstore.NewRedisStore(client)
		cleanup = func() { client.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
	}

	if cfg.EncryptionKey != "" {
		box, err := crypto.NewSecretBox(cfg.EncryptionKey)
		if err != nil {
			return nil, nil, err
		}
		store = credstore.NewEncryptedStore(store, box)
		logger.Info("Credential encryption enabled")
	}

	logger.Info("Credential store ready", logging.String("backend", cfg.CredentialStore))
	return store, cleanup, nil
}
