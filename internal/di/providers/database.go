package providers

import (
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/emberforum/ember-server/internal/config"
	"github.com/emberforum/ember-server/internal/logger"
	"github.com/emberforum/ember-server/internal/store"
	"github.com/emberforum/ember-server/internal/store/sqlite"
)

// StoreHandle wraps the store so the container can shut it down after the
// HTTP server.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite-backed store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o700); err != nil {
		return nil, err
	}

	st, err := sqlite.Open(cfg.Database.Path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Database.Path)

	return &StoreHandle{Store: st}, nil
}
