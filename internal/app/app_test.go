package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrissnell/changepoints/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticProvider struct {
	cfg *config.ConfigData
	err error
}

func (p *staticProvider) LoadConfig() (*config.ConfigData, error) { return p.cfg, p.err }
func (p *staticProvider) GetDetection() (*config.DetectionData, error) {
	return &p.cfg.Detection, p.err
}
func (p *staticProvider) GetSource() (*config.SourceData, error) { return &p.cfg.Source, p.err }
func (p *staticProvider) GetStorageConfig() (*config.StorageData, error) {
	return &p.cfg.Storage, p.err
}
func (p *staticProvider) GetControllers() ([]config.ControllerData, error) {
	return p.cfg.Controllers, p.err
}
func (p *staticProvider) IsReadOnly() bool { return true }
func (p *staticProvider) Close() error     { return nil }

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRunServesUntilCancelled(t *testing.T) {
	port := freePort(t)
	cfg := &config.ConfigData{
		Storage: config.StorageData{
			SQLite: &config.SQLiteData{Path: filepath.Join(t.TempDir(), "runs.db")},
		},
		Controllers: []config.ControllerData{{
			Type:       "rest",
			RESTServer: &config.RESTServerData{ListenAddr: "127.0.0.1", HTTPPort: port},
		}},
	}
	cfg.ApplyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(&staticProvider{cfg: cfg}, zap.NewNop().Sugar()).Run(ctx)
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", port)
	assert.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("app did not shut down")
	}
}

func TestRunFailsWithoutControllers(t *testing.T) {
	err := New(&staticProvider{cfg: &config.ConfigData{}}, zap.NewNop().Sugar()).Run(context.Background())
	assert.Error(t, err)
}

func TestRunPropagatesConfigErrors(t *testing.T) {
	boom := errors.New("boom")
	err := New(&staticProvider{err: boom}, zap.NewNop().Sugar()).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}
