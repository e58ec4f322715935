package model

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const ConfigFileName = "config.yml"

type StoreBackend string

const (
	MemoryBackend StoreBackend = "memory"
	FileBackend   StoreBackend = "file"
	BadgerBackend StoreBackend = "badger"
)

type Config struct {
	Inventory string      `yaml:"inventory"`
	Workers   int         `yaml:"workers"`
	Store     StoreConfig `yaml:"store"`
	Log       LogConfig   `yaml:"log"`
}

type StoreConfig struct {
	Backend StoreBackend `yaml:"backend"`
	Path    string       `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Workers: 4,
		Store: StoreConfig{
			Backend: MemoryBackend,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the per-user configuration directory (~/.vmcap).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to determine home directory")
	}
	return filepath.Join(home, ".vmcap"), nil
}

// LoadConfig reads a yaml config file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config [%s]", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "unable to parse config [%s]", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case MemoryBackend:
	case FileBackend, BadgerBackend:
		if c.Store.Path == "" {
			return errors.Errorf("store backend '%s' requires store.path", c.Store.Backend)
		}
	default:
		return errors.Errorf("unknown store backend '%s'", c.Store.Backend)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return nil
}
