package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills in the settings that may be omitted from the file.
func (cfg *AppConfig) ApplyDefaults() {
	if cfg.Node.Timeout == 0 {
		cfg.Node.Timeout = Duration(60 * time.Second)
	}
	if cfg.Import.MaxAttempts == 0 {
		cfg.Import.MaxAttempts = 5
	}
	if cfg.Import.RetryDelay == 0 {
		cfg.Import.RetryDelay = Duration(2 * time.Second)
	}
	if cfg.Import.SocketDelay == 0 {
		cfg.Import.SocketDelay = Duration(20 * time.Second)
	}
	if cfg.Import.ActivityLog == "" {
		cfg.Import.ActivityLog = "import.log"
	}
}
