// Package config loads pipeline configuration from environment
// variables layered over an optional YAML file. Environment values win.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete configuration for an ingestion run.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Warehouse WarehouseConfig `yaml:"warehouse" envconfig:"WAREHOUSE"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/ingest.log"`
}

// PipelineConfig controls document parsing and anomaly correction.
type PipelineConfig struct {
	// Workers bounds the per-document parse fan-out.
	Workers int `yaml:"workers" envconfig:"WORKERS" default:"4"`
	// Source is the provenance tag stamped on every snapshot.
	Source string `yaml:"source" envconfig:"SOURCE" default:"tixcli"`
	// SpikeJumpFactor and SpikeReversionFactor parameterize the
	// single-snapshot spike heuristic. The defaults were reverse
	// engineered from one observed mis-keying incident.
	SpikeJumpFactor      float64 `yaml:"spike_jump_factor" envconfig:"SPIKE_JUMP_FACTOR" default:"3.0"`
	SpikeReversionFactor float64 `yaml:"spike_reversion_factor" envconfig:"SPIKE_REVERSION_FACTOR" default:"0.5"`
	// ReportDir receives dry-run review reports.
	ReportDir string `yaml:"report_dir" envconfig:"REPORT_DIR" default:"reports"`
}

// WarehouseConfig selects and configures the snapshot warehouse backend.
type WarehouseConfig struct {
	// Backend is "bigquery", "postgres", or "memory".
	Backend string `yaml:"backend" envconfig:"BACKEND" default:"bigquery"`

	// BigQuery settings.
	ProjectID       string `yaml:"project_id" envconfig:"PROJECT_ID"`
	Dataset         string `yaml:"dataset" envconfig:"DATASET" default:"ticketing"`
	Table           string `yaml:"table" envconfig:"TABLE" default:"performance_snapshots"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`

	// Postgres settings.
	DatabaseURL string `yaml:"database_url" envconfig:"DATABASE_URL"`

	// Write shaping.
	BatchSize    int           `yaml:"batch_size" envconfig:"BATCH_SIZE" default:"500"`
	MaxRetries   int           `yaml:"max_retries" envconfig:"MAX_RETRIES" default:"4"`
	RetryBase    time.Duration `yaml:"retry_base" envconfig:"RETRY_BASE" default:"500ms"`
	WritesPerSec float64       `yaml:"writes_per_sec" envconfig:"WRITES_PER_SEC" default:"5"`
}

// Load reads configuration from the environment (prefix TIX) merged
// over the YAML file at path, when path is non-empty and exists.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process("TIX", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// applyDefaults fills zero values envconfig leaves behind when a YAML
// file set the struct but the env did not override it.
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 4
	}
	if c.Pipeline.Source == "" {
		c.Pipeline.Source = "tixcli"
	}
	if c.Pipeline.SpikeJumpFactor == 0 {
		c.Pipeline.SpikeJumpFactor = 3.0
	}
	if c.Pipeline.SpikeReversionFactor == 0 {
		c.Pipeline.SpikeReversionFactor = 0.5
	}
	if c.Pipeline.ReportDir == "" {
		c.Pipeline.ReportDir = "reports"
	}
	if c.Warehouse.Backend == "" {
		c.Warehouse.Backend = "bigquery"
	}
	if c.Warehouse.BatchSize <= 0 {
		c.Warehouse.BatchSize = 500
	}
	if c.Warehouse.MaxRetries <= 0 {
		c.Warehouse.MaxRetries = 4
	}
	if c.Warehouse.RetryBase <= 0 {
		c.Warehouse.RetryBase = 500 * time.Millisecond
	}
	if c.Warehouse.WritesPerSec <= 0 {
		c.Warehouse.WritesPerSec = 5
	}
}

func (c *Config) validate() error {
	switch c.Warehouse.Backend {
	case "bigquery", "postgres", "memory":
	default:
		return fmt.Errorf("unknown warehouse backend %q", c.Warehouse.Backend)
	}
	if c.Pipeline.SpikeJumpFactor <= 1 {
		return fmt.Errorf("spike jump factor must exceed 1, got %v", c.Pipeline.SpikeJumpFactor)
	}
	if c.Pipeline.SpikeReversionFactor <= 0 || c.Pipeline.SpikeReversionFactor >= 1 {
		return fmt.Errorf("spike reversion factor must be in (0,1), got %v", c.Pipeline.SpikeReversionFactor)
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("unknown logging output %q", c.Logging.Output)
	}
	return nil
}
