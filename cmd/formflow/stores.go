package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hificopy/formflow/internal/config"
	"github.com/hificopy/formflow/pkg/adapters/file"
	"github.com/hificopy/formflow/pkg/adapters/memory"
	"github.com/hificopy/formflow/pkg/adapters/redis"
	"github.com/hificopy/formflow/pkg/forms"
	"github.com/hificopy/formflow/pkg/persistence/middleware"
	"github.com/hificopy/formflow/pkg/ports"
)

// stores is the storage selected by storage.driver.
type stores struct {
	flows    ports.FlowStore
	progress ports.ProgressStore
	locker   ports.DistributedLocker
	close    func() error
}

func openStores(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*stores, error) {
	st, err := openDriver(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.EncryptionKey == "" {
		return st, nil
	}

	enc := middleware.EncryptionConfig{}
	if enc.ActiveKey, err = middleware.ParseKey(cfg.EncryptionKey); err != nil {
		return nil, err
	}
	for _, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, err
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	st.progress = middleware.Chain(st.progress, middleware.NewEncryptionMiddleware(enc))
	logger.Info("respondent answers are encrypted at rest", "fallback_keys", len(enc.FallbackKeys))
	return st, nil
}

func openDriver(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return &stores{
			flows:    memory.NewFlowStore(),
			progress: memory.NewProgressStore(),
			close:    func() error { return nil },
		}, nil

	case config.DriverFile:
		logger.Info("using file storage", "path", cfg.Path)
		return &stores{
			flows:    file.NewFlowStore(filepath.Join(cfg.Path, "flows")),
			progress: file.NewProgressStore(filepath.Join(cfg.Path, "progress")),
			close:    func() error { return nil },
		}, nil

	case config.DriverRedis:
		store := redis.New(cfg.Redis.Addr,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.ProgressTTL),
		)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("using redis storage", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)
		s := &stores{
			flows:    store,
			progress: store.Progress(),
			close:    store.Client().Close,
		}
		if cfg.Redis.Lock {
			s.locker = redis.NewLocker(store.Client(), cfg.Redis.Prefix)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// seedFlows saves every flow document found in dir through the manager, so
// invalid documents are rejected the same way an editor save would be.
func seedFlows(ctx context.Context, manager *forms.Manager, dir string, logger *slog.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read seed directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		flow, err := file.LoadFlow(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		if _, _, err := manager.Save(ctx, flow); err != nil {
			return fmt.Errorf("seed %s: %w", e.Name(), err)
		}
		logger.Info("seeded flow", "form_id", flow.ID, "file", e.Name())
	}
	return nil
}
