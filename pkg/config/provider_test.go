package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
detection:
  method: op
  penalty-type: manual
  penalty: 4.5
  min-seg-len: 3
  smoothing-window: 5
source:
  database:
    driver: sqlite
    dsn: readings.db
    table: weather_1h
    column: depth
    order-by: bucket
    filter-column: stationname
    filter-value: snow
storage:
  sqlite:
    path: runs.db
controllers:
  - type: rest
    rest:
      listen-addr: 127.0.0.1
      http-port: 9090
`

func TestYAMLProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	provider := NewYAMLProvider(path)
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DetectionData{
		Method:          "op",
		PenaltyType:     "manual",
		Penalty:         4.5,
		MinSegLen:       3,
		SmoothingWindow: 5,
	}, cfg.Detection)

	require.NotNil(t, cfg.Source.Database)
	assert.Equal(t, "weather_1h", cfg.Source.Database.Table)
	assert.Equal(t, "stationname", cfg.Source.Database.FilterColumn)

	require.NotNil(t, cfg.Storage.SQLite)
	assert.Equal(t, "runs.db", cfg.Storage.SQLite.Path)
	assert.Nil(t, cfg.Storage.TimescaleDB)

	controllers, err := provider.GetControllers()
	require.NoError(t, err)
	require.Len(t, controllers, 1)
	assert.Equal(t, "127.0.0.1", controllers[0].RESTServer.ListenAddr)
	assert.Equal(t, 9090, controllers[0].RESTServer.HTTPPort)
	assert.Equal(t, DefaultMaxSeriesLength, controllers[0].RESTServer.MaxSeriesLength)

	assert.True(t, provider.IsReadOnly())
}

func TestProviderLoadsLazily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detection:\n  penalty: 2\n"), 0o600))

	detection, err := NewYAMLProvider(path).GetDetection()
	require.NoError(t, err)
	assert.Equal(t, "pelt", detection.Method)
	assert.Equal(t, "manual", detection.PenaltyType)
	assert.Equal(t, 1, detection.MinSegLen)
	assert.Equal(t, 1, detection.SmoothingWindow)

	_, err = NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml")).GetSource()
	assert.Error(t, err)
}

func TestParseYAMLDefaults(t *testing.T) {
	cfg, err := ParseYAML([]byte("controllers:\n  - type: rest\n    rest: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, "pelt", cfg.Detection.Method)
	assert.Equal(t, "mbic", cfg.Detection.PenaltyType)
	assert.Equal(t, DefaultListenAddr, cfg.Controllers[0].RESTServer.ListenAddr)
	assert.Equal(t, DefaultHTTPPort, cfg.Controllers[0].RESTServer.HTTPPort)
}

func TestParseYAMLRejectsInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"unknown method":       "detection:\n  method: binseg\n",
		"unknown penalty":      "detection:\n  penalty-type: cv\n",
		"negative penalty":     "detection:\n  penalty-type: manual\n  penalty: -1\n",
		"even smoothing":       "detection:\n  smoothing-window: 4\n",
		"negative min seg len": "detection:\n  min-seg-len: -2\n",
		"two stores":           "storage:\n  sqlite:\n    path: a.db\n  timescaledb:\n    connection-string: x\n",
		"bad driver":           "source:\n  database:\n    driver: mysql\n    dsn: x\n    table: t\n    column: c\n",
		"unknown controller":   "controllers:\n  - type: grpc\n",
		"half tls":             "controllers:\n  - type: rest\n    rest:\n      tls-cert-path: cert.pem\n",
		"unknown key":          "detection:\n  methd: pelt\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseYAML([]byte(doc))
			assert.Error(t, err)
		})
	}
}
