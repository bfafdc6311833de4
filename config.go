package tickos

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFS     = "fs"
	StoreBolt   = "bolt"
)

// Config is a serialisable representation of the service configuration.
// LoadConfig starts from DefaultConfig, so omitted fields keep their
// defaults.
type Config struct {
	StartTick uint32         `json:"startTick" yaml:"startTick"`
	Store     StoreConfig    `json:"store" yaml:"store"`
	Budget    BudgetConfig   `json:"budget" yaml:"budget"`
	Snapshot  SnapshotConfig `json:"snapshot" yaml:"snapshot"`
	Tracing   TracingConfig  `json:"tracing" yaml:"tracing"`
	Log       LogConfig      `json:"log" yaml:"log"`
}

// StoreConfig selects where snapshots are kept. URL is an afs URL for the fs
// store and a file path for bolt.
type StoreConfig struct {
	Kind string `json:"kind" yaml:"kind"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// BudgetConfig limits one invocation. Zero values mean no limit.
type BudgetConfig struct {
	Steps    int           `json:"steps,omitempty" yaml:"steps,omitempty"`
	Deadline time.Duration `json:"deadline,omitempty" yaml:"deadline,omitempty"`
}

type SnapshotConfig struct {
	Compression bool `json:"compression" yaml:"compression"`
	Quality     int  `json:"quality" yaml:"quality"`
	Checksum    bool `json:"checksum" yaml:"checksum"`
}

type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`
	// OutputFile receives spans; empty means stdout.
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

type LogConfig struct {
	// Level is a zap level name; empty disables logging.
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development,omitempty" yaml:"development,omitempty"`
}

// DefaultConfig returns the configuration New uses when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Store:    StoreConfig{Kind: StoreMemory},
		Snapshot: SnapshotConfig{Quality: 6, Checksum: true},
		Tracing:  TracingConfig{ServiceName: "tickos", ServiceVersion: "0.1.0"},
		Log:      LogConfig{Level: "info"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var err error
	switch c.Store.Kind {
	case StoreMemory:
	case StoreFS, StoreBolt:
		if c.Store.URL == "" {
			err = multierr.Append(err, fmt.Errorf("store.url is required for %s store", c.Store.Kind))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unsupported store.kind: %q", c.Store.Kind))
	}
	if c.Budget.Steps < 0 {
		err = multierr.Append(err, fmt.Errorf("budget.steps must be >= 0"))
	}
	if c.Budget.Deadline < 0 {
		err = multierr.Append(err, fmt.Errorf("budget.deadline must be >= 0"))
	}
	if c.Snapshot.Compression && (c.Snapshot.Quality < 0 || c.Snapshot.Quality > 11) {
		err = multierr.Append(err, fmt.Errorf("snapshot.quality must be within 0..11"))
	}
	if c.Log.Level != "" {
		if _, lErr := zapcore.ParseLevel(c.Log.Level); lErr != nil {
			err = multierr.Append(err, fmt.Errorf("log.level: %w", lErr))
		}
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		err = multierr.Append(err, fmt.Errorf("tracing.serviceName is required when tracing is enabled"))
	}
	return err
}

// LoadConfig reads a YAML (or JSON) configuration from any afs URL and
// validates it.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", URL, err)
	}
	return ret, nil
}
