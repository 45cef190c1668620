package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mastery struct {
		// Path of the device-local SQLite file; ":memory:" keeps nothing.
		Path string `yaml:"path"`
	} `yaml:"mastery"`
	Session struct {
		SaveInterval string `yaml:"saveInterval"`
		TickInterval string `yaml:"tickInterval"`
	} `yaml:"session"`
	Content struct {
		TTL string `yaml:"ttl"`
	} `yaml:"content"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the zero Config.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	return cfg, err
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}

// MasteryPath returns the configured SQLite path or the default under dir.
func (c Config) MasteryPath(dir string) string {
	if c.Mastery.Path != "" {
		return c.Mastery.Path
	}
	return dir + "/mastery.db"
}
