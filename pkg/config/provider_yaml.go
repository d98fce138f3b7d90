package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file, applies
// defaults and validates the result
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// ParseYAML converts a YAML document into ConfigData with defaults applied
func ParseYAML(data []byte) (*ConfigData, error) {
	var yamlConfig struct {
		Detection   DetectionYAML    `yaml:"detection,omitempty"`
		Source      SourceYAML       `yaml:"source,omitempty"`
		Storage     StorageYAML      `yaml:"storage,omitempty"`
		Controllers []ControllerYAML `yaml:"controllers,omitempty"`
	}

	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Detection: DetectionData{
			Method:          yamlConfig.Detection.Method,
			PenaltyType:     yamlConfig.Detection.PenaltyType,
			Penalty:         yamlConfig.Detection.Penalty,
			MinSegLen:       yamlConfig.Detection.MinSegLen,
			SmoothingWindow: yamlConfig.Detection.SmoothingWindow,
		},
		Source: SourceData{
			File:   yamlConfig.Source.File,
			Format: yamlConfig.Source.Format,
			Column: yamlConfig.Source.Column,
		},
		Controllers: make([]ControllerData, len(yamlConfig.Controllers)),
	}

	if db := yamlConfig.Source.Database; db != nil {
		config.Source.Database = &DatabaseSourceData{
			Driver:       db.Driver,
			DSN:          db.DSN,
			Table:        db.Table,
			Column:       db.Column,
			OrderBy:      db.OrderBy,
			FilterColumn: db.FilterColumn,
			FilterValue:  db.FilterValue,
			Limit:        db.Limit,
		}
	}

	if yamlConfig.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{
			Path: yamlConfig.Storage.SQLite.Path,
		}
	}
	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}

	for i, controller := range yamlConfig.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}
		if controller.RESTServer != nil {
			config.Controllers[i].RESTServer = &RESTServerData{
				ListenAddr:      controller.RESTServer.ListenAddr,
				HTTPPort:        controller.RESTServer.HTTPPort,
				TLSCertPath:     controller.RESTServer.TLSCertPath,
				TLSKeyPath:      controller.RESTServer.TLSKeyPath,
				MaxSeriesLength: controller.RESTServer.MaxSeriesLength,
			}
		}
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GetDetection returns the detection defaults
func (y *YAMLProvider) GetDetection() (*DetectionData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Detection, nil
}

// GetSource returns the series source configuration
func (y *YAMLProvider) GetSource() (*SourceData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Source, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing

type DetectionYAML struct {
	Method          string  `yaml:"method,omitempty"`
	PenaltyType     string  `yaml:"penalty-type,omitempty"`
	Penalty         float64 `yaml:"penalty,omitempty"`
	MinSegLen       int     `yaml:"min-seg-len,omitempty"`
	SmoothingWindow int     `yaml:"smoothing-window,omitempty"`
}

type SourceYAML struct {
	File     string              `yaml:"file,omitempty"`
	Format   string              `yaml:"format,omitempty"`
	Column   int                 `yaml:"column,omitempty"`
	Database *DatabaseSourceYAML `yaml:"database,omitempty"`
}

type DatabaseSourceYAML struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	Table        string `yaml:"table"`
	Column       string `yaml:"column"`
	OrderBy      string `yaml:"order-by,omitempty"`
	FilterColumn string `yaml:"filter-column,omitempty"`
	FilterValue  string `yaml:"filter-value,omitempty"`
	Limit        int    `yaml:"limit,omitempty"`
}

type StorageYAML struct {
	SQLite      *SQLiteYAML      `yaml:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
}

type SQLiteYAML struct {
	Path string `yaml:"path"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type ControllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *RESTServerYAML `yaml:"rest,omitempty"`
}

type RESTServerYAML struct {
	ListenAddr      string `yaml:"listen-addr,omitempty"`
	HTTPPort        int    `yaml:"http-port,omitempty"`
	TLSCertPath     string `yaml:"tls-cert-path,omitempty"`
	TLSKeyPath      string `yaml:"tls-key-path,omitempty"`
	MaxSeriesLength int    `yaml:"max-series-length,omitempty"`
}
