package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults. The relay port matches the port follow-on processes have always
// dialed to reach the context bridge.
const (
	DefaultRelayHost = "127.0.0.1"
	DefaultRelayPort = 18861
)

// Config holds the console bridge settings.
type Config struct {
	RelayHost     string   `json:"relay_host"`
	RelayPort     int      `json:"relay_port"`
	KernelCommand []string `json:"kernel_command"`
	ConnectionDir string   `json:"connection_dir"`
	Debug         bool     `json:"debug"`
}

// DefaultConfig returns the configuration used when no file and no
// environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		RelayHost:     DefaultRelayHost,
		RelayPort:     DefaultRelayPort,
		KernelCommand: []string{"python3", "-i", "-q"},
		ConnectionDir: os.TempDir(),
	}
}

// Load reads the configuration file (if any), then applies environment
// overrides. A missing file is not an error; a malformed one is.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = os.Getenv("YAPYCON_CONFIG_PATH")
		if configPath == "" {
			configPath = filepath.Join(defaultConfigDir(), "yapycon.json")
		}
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)
	Validate(cfg)
	return cfg, nil
}

func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "yapycon")
	}
	return "."
}

func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("YAPYCON_RELAY_HOST"); host != "" {
		cfg.RelayHost = host
	}
	if raw := os.Getenv("YAPYCON_RELAY_PORT"); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil {
			cfg.RelayPort = port
		}
	}
	if raw := os.Getenv("YAPYCON_KERNEL_CMD"); raw != "" {
		cfg.KernelCommand = strings.Fields(raw)
	}
	if dir := os.Getenv("YAPYCON_CONNECTION_DIR"); dir != "" {
		cfg.ConnectionDir = dir
	}
	if raw := os.Getenv("YAPYCON_DEBUG"); raw != "" {
		if debug, err := strconv.ParseBool(raw); err == nil {
			cfg.Debug = debug
		}
	}
}

// Validate clamps out-of-range values back to their defaults instead of
// erroring, so a broken config file still yields a usable bridge.
func Validate(cfg *Config) {
	if cfg.RelayHost == "" {
		cfg.RelayHost = DefaultRelayHost
	}
	if cfg.RelayPort < 0 || cfg.RelayPort > 65535 {
		cfg.RelayPort = DefaultRelayPort
	}
	if len(cfg.KernelCommand) == 0 {
		cfg.KernelCommand = DefaultConfig().KernelCommand
	}
	if cfg.ConnectionDir == "" {
		cfg.ConnectionDir = os.TempDir()
	}
}

// RelayAddr returns the host:port the relay server binds.
func (c *Config) RelayAddr() string {
	return fmt.Sprintf("%s:%d", c.RelayHost, c.RelayPort)
}
