package config

import (
	redisclient "github.com/rippledata/importer/internal/infra/redis"
	"github.com/rippledata/importer/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Node     NodeConfig         `yaml:"node"`
	Database postgres.Config    `yaml:"database"`
	Import   ImportConfig       `yaml:"import"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Metrics  MetricsConfig      `yaml:"metrics"`
}

// NodeConfig holds the rippled connection settings. The URL scheme picks
// the transport: http/https for JSON-RPC, ws/wss for WebSocket.
type NodeConfig struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// ImportConfig holds the ingestion run settings.
type ImportConfig struct {
	ActivityLog string   `yaml:"activity_log"`
	MaxAttempts int      `yaml:"max_attempts"`
	RetryDelay  Duration `yaml:"retry_delay"`
	SocketDelay Duration `yaml:"socket_delay"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig holds the Prometheus exposition settings.
type MetricsConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}
