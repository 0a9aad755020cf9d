package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment keys that override config.yaml. The process environment wins
// over ~/.resolv/.env.
const (
	EnvDatasetsDir      = "RESOLV_DATASETS_DIR"
	EnvLogLevel         = "RESOLV_LOG_LEVEL"
	EnvReconcileWorkers = "RESOLV_RECONCILE_WORKERS"
)

// Config is the in-memory representation of ~/.resolv/config.yaml.
type Config struct {
	// DatasetsDir is where dataset directories and their catalogs live.
	DatasetsDir string `yaml:"datasets_dir"`
	LogLevel    string `yaml:"log_level,omitempty"`
	// ReconcileWorkers bounds concurrent hashing; 0 means one per CPU.
	ReconcileWorkers int `yaml:"reconcile_workers,omitempty"`
	// Compress makes build write zstd catalogs by default.
	Compress bool `yaml:"compress,omitempty"`
}

// ResolvDir returns the absolute path to ~/.resolv/.
func ResolvDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".resolv"), nil
}

// ConfigPath returns the absolute path to ~/.resolv/config.yaml.
func ConfigPath() (string, error) {
	dir, err := ResolvDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the Config written by resolv-data init.
func DefaultConfig() (*Config, error) {
	dir, err := ResolvDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		DatasetsDir: filepath.Join(dir, "datasets"),
		LogLevel:    "warn",
	}, nil
}

// IndexFileName is the catalog file name build writes by default.
func (c *Config) IndexFileName() string {
	if c.Compress {
		return "index.bin.zst"
	}
	return "index.bin"
}

// Load reads ~/.resolv/config.yaml, falling back to DefaultConfig when it
// does not exist, and applies environment overrides.
func Load() (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	// Expand ~ in DatasetsDir at load time.
	cfg.DatasetsDir, err = ExpandPath(cfg.DatasetsDir)
	if err != nil {
		return nil, err
	}
	if cfg.ReconcileWorkers < 0 {
		return nil, fmt.Errorf("reconcile_workers must not be negative, got %d", cfg.ReconcileWorkers)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, err := GetConfigValue(EnvDatasetsDir); err != nil {
		return err
	} else if v != "" {
		c.DatasetsDir = v
	}
	if v, err := GetConfigValue(EnvLogLevel); err != nil {
		return err
	} else if v != "" {
		c.LogLevel = v
	}
	if v, err := GetConfigValue(EnvReconcileWorkers); err != nil {
		return err
	} else if v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvReconcileWorkers, v, err)
		}
		c.ReconcileWorkers = n
	}
	return nil
}

// Save marshals cfg and writes it to ~/.resolv/config.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
