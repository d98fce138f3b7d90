package managers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/changepoints/internal/log"
	"github.com/chrissnell/changepoints/internal/storage"
	"github.com/chrissnell/changepoints/internal/storage/sqlite"
	"github.com/chrissnell/changepoints/internal/storage/timescaledb"
	"github.com/chrissnell/changepoints/pkg/config"
)

// DefaultHealthInterval is how often the active storage backend is pinged
const DefaultHealthInterval = 60 * time.Second

// StorageManager holds the active run storage backend, if any, and its health
type StorageManager struct {
	Store  storage.Store
	Engine string
	Health *storage.HealthManager
}

// NewStorageManager opens the storage backend named in c and starts its
// health monitor. With no backend configured Store is nil and runs are not
// persisted.
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, c *config.StorageData, interval time.Duration) (*StorageManager, error) {
	s := &StorageManager{Health: storage.NewHealthManager()}

	store, engine, err := NewStore(ctx, c)
	if err != nil {
		return nil, err
	}
	if store == nil {
		log.Info("no run storage configured; runs will not be persisted")
		return s, nil
	}
	s.Store = store
	s.Engine = engine

	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	storage.StartHealthMonitor(ctx, s.Health, engine, store, interval)

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		log.Infof("closing %s storage...", engine)
		if err := store.Close(); err != nil {
			log.Errorf("error closing %s storage: %v", engine, err)
		}
	}()

	return s, nil
}

// NewStore opens the configured storage backend and returns it with its name.
// It returns a nil Store when none is configured.
func NewStore(ctx context.Context, c *config.StorageData) (storage.Store, string, error) {
	if c == nil {
		return nil, "", nil
	}

	switch {
	case c.SQLite != nil:
		store, err := sqlite.New(ctx, c.SQLite.Path)
		if err != nil {
			return nil, "", fmt.Errorf("could not add SQLite storage backend: %v", err)
		}
		return store, "sqlite", nil
	case c.TimescaleDB != nil && c.TimescaleDB.ConnectionString != "":
		store, err := timescaledb.New(ctx, c.TimescaleDB.ConnectionString)
		if err != nil {
			return nil, "", fmt.Errorf("could not add TimescaleDB storage backend: %v", err)
		}
		return store, "timescaledb", nil
	default:
		return nil, "", nil
	}
}
