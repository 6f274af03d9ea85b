package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"honeypos/internal/config"
	"honeypos/internal/http/handlers"
	applog "honeypos/internal/log"
	"honeypos/internal/repos"
	"honeypos/internal/services"
)

func openKV(ctx context.Context, cfg config.Config) (repos.KV, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		db, err := repos.OpenDB(cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		return repos.NewSQLiteKV(db), nil
	case "redis":
		rdb, err := repos.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return repos.NewRedisKV(rdb, "honeypos:"), nil
	}
	return nil, errors.New("unknown STORE_BACKEND " + cfg.StoreBackend)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run owns every resource so deferred closes happen before main exits.
func run() error {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openKV(ctx, cfg)
	if err != nil {
		return err
	}
	store := repos.NewStore(kv)
	defer store.Close()
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	if err := services.SeedIfEmpty(ctx, store, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	app := handlers.NewApp(handlers.NewDeps(store, cfg), cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		applog.Info(nil, "server.start", map[string]any{"port": cfg.Port, "backend": cfg.StoreBackend})
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		applog.Info(nil, "server.stop", nil)
		return app.ShutdownWithContext(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Printf("[server] exited: %v", err)
	}
	return nil
}
