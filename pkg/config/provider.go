package config

import (
	"fmt"

	"github.com/chrissnell/changepoints/pkg/changepoint"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetDetection() (*DetectionData, error)
	GetSource() (*SourceData, error)
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Detection   DetectionData    `json:"detection"`
	Source      SourceData       `json:"source,omitempty"`
	Storage     StorageData      `json:"storage,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// DetectionData holds the default changepoint detection parameters
type DetectionData struct {
	Method          string  `json:"method,omitempty"`
	PenaltyType     string  `json:"penalty_type,omitempty"`
	Penalty         float64 `json:"penalty,omitempty"`
	MinSegLen       int     `json:"min_seg_len,omitempty"`
	SmoothingWindow int     `json:"smoothing_window,omitempty"`
}

// SourceData describes where the one-shot CLI reads its series from
type SourceData struct {
	File     string              `json:"file,omitempty"`
	Format   string              `json:"format,omitempty"`
	Column   int                 `json:"column,omitempty"`
	Database *DatabaseSourceData `json:"database,omitempty"`
}

// DatabaseSourceData selects one ordered numeric column from a SQL table
type DatabaseSourceData struct {
	Driver       string `json:"driver"`
	DSN          string `json:"dsn"`
	Table        string `json:"table"`
	Column       string `json:"column"`
	OrderBy      string `json:"order_by,omitempty"`
	FilterColumn string `json:"filter_column,omitempty"`
	FilterValue  string `json:"filter_value,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// StorageData holds the configuration for the run storage backends
type StorageData struct {
	SQLite      *SQLiteData      `json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
}

type SQLiteData struct {
	Path string `json:"path"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

// ControllerData holds the configuration for various controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
}

type RESTServerData struct {
	ListenAddr      string `json:"listen_addr,omitempty"`
	HTTPPort        int    `json:"http_port,omitempty"`
	TLSCertPath     string `json:"tls_cert_path,omitempty"`
	TLSKeyPath      string `json:"tls_key_path,omitempty"`
	MaxSeriesLength int    `json:"max_series_length,omitempty"`
}

const (
	DefaultListenAddr      = "0.0.0.0"
	DefaultHTTPPort        = 8080
	DefaultMaxSeriesLength = 100000
)

// ApplyDefaults fills in every optional setting left empty
func (c *ConfigData) ApplyDefaults() {
	if c.Detection.Method == "" {
		c.Detection.Method = string(changepoint.MethodPELT)
	}
	if c.Detection.PenaltyType == "" {
		if c.Detection.Penalty > 0 {
			c.Detection.PenaltyType = string(changepoint.PenaltyManual)
		} else {
			c.Detection.PenaltyType = string(changepoint.PenaltyMBIC)
		}
	}
	if c.Detection.MinSegLen == 0 {
		c.Detection.MinSegLen = changepoint.DefaultMinSegLen
	}
	if c.Detection.SmoothingWindow == 0 {
		c.Detection.SmoothingWindow = 1
	}

	for i := range c.Controllers {
		rc := c.Controllers[i].RESTServer
		if rc == nil {
			continue
		}
		if rc.ListenAddr == "" {
			rc.ListenAddr = DefaultListenAddr
		}
		if rc.HTTPPort == 0 {
			rc.HTTPPort = DefaultHTTPPort
		}
		if rc.MaxSeriesLength == 0 {
			rc.MaxSeriesLength = DefaultMaxSeriesLength
		}
	}
}

// Validate checks the configuration for values the application cannot run with
func (c *ConfigData) Validate() error {
	if _, err := changepoint.ParseMethod(c.Detection.Method); err != nil {
		return fmt.Errorf("detection.method: %w", err)
	}
	pt, err := changepoint.ParsePenaltyType(c.Detection.PenaltyType)
	if err != nil {
		return fmt.Errorf("detection.penalty-type: %w", err)
	}
	if pt == changepoint.PenaltyManual && c.Detection.Penalty < 0 {
		return fmt.Errorf("detection.penalty must not be negative, got %v", c.Detection.Penalty)
	}
	if c.Detection.MinSegLen < 1 {
		return fmt.Errorf("detection.min-seg-len must be at least 1, got %d", c.Detection.MinSegLen)
	}
	if c.Detection.SmoothingWindow < 1 || c.Detection.SmoothingWindow%2 == 0 {
		return fmt.Errorf("detection.smoothing-window must be a positive odd integer, got %d", c.Detection.SmoothingWindow)
	}

	if c.Storage.SQLite != nil && c.Storage.TimescaleDB != nil {
		return fmt.Errorf("storage: configure either sqlite or timescaledb, not both")
	}
	if c.Storage.SQLite != nil && c.Storage.SQLite.Path == "" {
		return fmt.Errorf("storage.sqlite.path is required")
	}
	if c.Storage.TimescaleDB != nil && c.Storage.TimescaleDB.ConnectionString == "" {
		return fmt.Errorf("storage.timescaledb.connection-string is required")
	}

	if db := c.Source.Database; db != nil {
		if c.Source.File != "" {
			return fmt.Errorf("source: configure either file or database, not both")
		}
		if db.Driver != "postgres" && db.Driver != "sqlite" {
			return fmt.Errorf("source.database.driver must be postgres or sqlite, got %q", db.Driver)
		}
		if db.DSN == "" || db.Table == "" || db.Column == "" {
			return fmt.Errorf("source.database requires dsn, table and column")
		}
	}

	for i, con := range c.Controllers {
		switch con.Type {
		case "rest":
			if con.RESTServer == nil {
				return fmt.Errorf("controllers[%d]: rest controller has no rest section", i)
			}
			if (con.RESTServer.TLSCertPath == "") != (con.RESTServer.TLSKeyPath == "") {
				return fmt.Errorf("controllers[%d]: tls-cert-path and tls-key-path must be set together", i)
			}
		default:
			return fmt.Errorf("controllers[%d]: unsupported controller type %q", i, con.Type)
		}
	}

	return nil
}
