package engine

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ecmago/engine/internal/vm"
)

// Config holds the non-ambient settings spec.md §6 names: resource bounds
// and the strict-mode default. CLI flags are the primary surface
// (SPEC_FULL.md §1); this struct is what a `--config FILE` YAML document
// loads into, grounded on aiseeq-glint/pkg/core.Config's yaml.v3 loading
// pattern.
type Config struct {
	MaxStack      int    `yaml:"max_stack"`
	MaxFrames     int    `yaml:"max_frames"`
	StrictDefault bool   `yaml:"strict_default"`
	CachePath     string `yaml:"cache_path"`
}

// DefaultConfig mirrors vm.DefaultMaxStack/DefaultMaxFrames with strict
// mode off and caching disabled, the same posture as a VM built with
// vm.New() and no further configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxStack:  vm.DefaultMaxStack,
		MaxFrames: vm.DefaultMaxFrames,
	}
}

// LoadConfig reads a YAML document at path into a Config seeded with
// DefaultConfig's values, so a partial file only overrides what it names.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engine: read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("engine: parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv loads a .env file (if present, errors ignored exactly like the
// teacher's own main() does for godotenv.Load) and then overrides cfg's
// fields from the ENGINE_MAX_STACK / ENGINE_MAX_FRAMES / ENGINE_STRICT_DEFAULT
// environment variables named in spec.md §6, which take precedence over
// both DefaultConfig and any --config file since they're the most specific
// override an embedder can supply.
func (cfg *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("ENGINE_MAX_STACK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxStack = n
		}
	}
	if v := os.Getenv("ENGINE_MAX_FRAMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFrames = n
		}
	}
	if v := os.Getenv("ENGINE_STRICT_DEFAULT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StrictDefault = b
		}
	}
}
