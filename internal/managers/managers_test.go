package managers

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/changepoints/internal/detection"
	"github.com/chrissnell/changepoints/internal/storage"
	"github.com/chrissnell/changepoints/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewStoreWithoutBackend(t *testing.T) {
	store, engine, err := NewStore(context.Background(), &config.StorageData{})
	require.NoError(t, err)
	assert.Nil(t, store)
	assert.Empty(t, engine)

	store, _, err = NewStore(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestStorageManagerSQLite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	sm, err := NewStorageManager(ctx, &wg, &config.StorageData{
		SQLite: &config.SQLiteData{Path: filepath.Join(t.TempDir(), "runs.db")},
	}, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, sm.Store)
	assert.Equal(t, "sqlite", sm.Engine)

	// The first health check runs before NewStorageManager returns.
	health, ok := sm.Health.GetHealth("sqlite")
	require.True(t, ok)
	assert.Equal(t, storage.StatusHealthy, health.Status)

	cancel()
	wg.Wait()
	assert.Error(t, sm.Store.Ping(context.Background()))
}

func TestControllerManagerRejectsUnknownControllers(t *testing.T) {
	service, err := detection.NewService(config.DetectionData{}, nil, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	_, err = NewControllerManager(context.Background(), &wg, []config.ControllerData{{Type: "grpc"}}, service, nil, zap.NewNop().Sugar())
	assert.Error(t, err)

	_, err = NewControllerManager(context.Background(), &wg, []config.ControllerData{{Type: "rest"}}, service, nil, zap.NewNop().Sugar())
	assert.Error(t, err)

	cm, err := NewControllerManager(context.Background(), &wg, []config.ControllerData{{
		Type:       "rest",
		RESTServer: &config.RESTServerData{ListenAddr: "127.0.0.1", HTTPPort: 18080},
	}}, service, nil, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.NotNil(t, cm)
}
