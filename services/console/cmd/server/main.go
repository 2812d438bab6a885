package main

import (
	"context"
	"net/http"

	"govdesk/pkg/artifact"
	"govdesk/pkg/db"
	"govdesk/services/console/internal/config"
	"govdesk/services/console/internal/seed"
	"govdesk/services/console/internal/store"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := newLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	var st store.Repository
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("database connect failed", zap.Error(err))
		}
		pg := store.NewPG(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("schema setup failed", zap.Error(err))
		}
		st = pg
		log.Info("using postgres store")
	} else {
		st = store.NewMemory()
		log.Info("using in-memory store")
	}

	s := newServer(st, cfg, log)

	if cfg.SeedDir != "" {
		loader := seed.New(func(ctx context.Context, kind artifact.Kind, name, content string) error {
			_, err := s.processUpload(ctx, kind, name, "", content)
			return err
		}, log)
		if err := loader.LoadDir(ctx, cfg.SeedDir); err != nil {
			log.Fatal("seed load failed", zap.Error(err))
		}
		go func() {
			if err := loader.Watch(ctx, cfg.SeedDir); err != nil && ctx.Err() == nil {
				log.Warn("seed watcher stopped", zap.Error(err))
			}
		}()
	}

	log.Info("console listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, newRouter(s)); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	log, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}
