package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/rewearapp/rewear-server/internal/cache"
	"github.com/rewearapp/rewear-server/internal/config"
	"github.com/rewearapp/rewear-server/internal/logger"
	"github.com/rewearapp/rewear-server/internal/store/sqlite"
)

// StoreHandle wraps the sqlite store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "rewear.db")
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// CacheHandle wraps the badger cache with shutdown capability.
type CacheHandle struct {
	*cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideCache provides the badger-backed balance and view-count cache.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cachePath := filepath.Join(cfg.Data.BasePath, "cache")
	c, err := cache.Open(cachePath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Cache initialized", "path", cachePath)

	return &CacheHandle{Cache: c}, nil
}
