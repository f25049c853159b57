package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	// ChipsFile describes the simulated chips the daemon exposes.
	ChipsFile string `json:"chips_file" yaml:"chips_file" toml:"chips_file"`

	// StorePath persists the static chip info snapshot across restarts.
	StorePath string `json:"store_path" yaml:"store_path" toml:"store_path"`

	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	// P2PIdleTimeoutSec gates the disconnected-P2P opportunistic downgrade.
	// Zero means the package default; negative disables it.
	P2PIdleTimeoutSec int `json:"p2p_idle_timeout_sec" yaml:"p2p_idle_timeout_sec" toml:"p2p_idle_timeout_sec"`

	// WaitForDestroyedListeners makes cross-handler destroy callbacks block
	// the destroying goroutine.
	WaitForDestroyedListeners bool `json:"wait_for_destroyed_listeners" yaml:"wait_for_destroyed_listeners" toml:"wait_for_destroyed_listeners"`

	// Priorities maps requestor names to tiers (privileged, system, fg_app,
	// fg_service, background, internal).
	Priorities map[string]string `json:"priorities" yaml:"priorities" toml:"priorities"`

	// DefaultPriority applies to requestors absent from Priorities.
	DefaultPriority string `json:"default_priority" yaml:"default_priority" toml:"default_priority"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
