// Package config loads chatflow settings from a YAML, JSON or TOML file and
// applies CHATFLOW_* environment overrides on top.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. A missing default file is not an error.
const DefaultPath = "chatflow.yaml"

// Config is the full runtime configuration.
type Config struct {
	Log   LogConfig   `yaml:"log" json:"log" toml:"log"`
	Store StoreConfig `yaml:"store" json:"store" toml:"store"`
	HTTP  HTTPConfig  `yaml:"http" json:"http" toml:"http"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" toml:"level"`
	Format string `yaml:"format" json:"format" toml:"format"`
}

// StoreConfig selects and configures the chatbot store.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres, redis or loam.
	Driver string `yaml:"driver" json:"driver" toml:"driver"`
	// DSN is the sqlite path or the postgres URL.
	DSN string `yaml:"dsn" json:"dsn" toml:"dsn"`
	// Dir is the loam repository root.
	Dir string `yaml:"dir" json:"dir" toml:"dir"`

	RedisAddr     string `yaml:"redis_addr" json:"redis_addr" toml:"redis_addr"`
	RedisPassword string `yaml:"redis_password" json:"redis_password" toml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db" toml:"redis_db"`
	Prefix        string `yaml:"prefix" json:"prefix" toml:"prefix"`

	// Lock enables the Redis save lock (requires RedisAddr).
	Lock bool `yaml:"lock" json:"lock" toml:"lock"`

	// MaskPII hides contact phones and MaskPatterns matches when reading sessions.
	MaskPII      bool     `yaml:"mask_pii" json:"mask_pii" toml:"mask_pii"`
	MaskPatterns []string `yaml:"mask_patterns" json:"mask_patterns" toml:"mask_patterns"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr" toml:"addr"`
	// SaveRate is the sustained number of saves per second; SaveBurst the bucket size.
	SaveRate  float64 `yaml:"save_rate" json:"save_rate" toml:"save_rate"`
	SaveBurst int     `yaml:"save_burst" json:"save_burst" toml:"save_burst"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:   LogConfig{Level: "info", Format: "text"},
		Store: StoreConfig{Driver: "memory", Dir: ".chatflow", DSN: "chatflow.db", Prefix: "chatflow:"},
		HTTP:  HTTPConfig{Addr: ":8080", SaveRate: 5, SaveBurst: 10},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// If path is empty the DefaultPath is tried and silently skipped when absent.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err) && !explicit:
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := decode(path, data, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ApplyEnv overrides cfg with CHATFLOW_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"CHATFLOW_LOG_LEVEL":      &cfg.Log.Level,
		"CHATFLOW_LOG_FORMAT":     &cfg.Log.Format,
		"CHATFLOW_STORE":          &cfg.Store.Driver,
		"CHATFLOW_DSN":            &cfg.Store.DSN,
		"CHATFLOW_DIR":            &cfg.Store.Dir,
		"CHATFLOW_REDIS_ADDR":     &cfg.Store.RedisAddr,
		"CHATFLOW_REDIS_PASSWORD": &cfg.Store.RedisPassword,
		"CHATFLOW_PREFIX":         &cfg.Store.Prefix,
		"CHATFLOW_HTTP_ADDR":      &cfg.HTTP.Addr,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("CHATFLOW_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHATFLOW_REDIS_DB: %w", err)
		}
		cfg.Store.RedisDB = n
	}
	if v, ok := lookup("CHATFLOW_LOCK"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHATFLOW_LOCK: %w", err)
		}
		cfg.Store.Lock = b
	}
	if v, ok := lookup("CHATFLOW_MASK_PII"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHATFLOW_MASK_PII: %w", err)
		}
		cfg.Store.MaskPII = b
	}
	if v, ok := lookup("CHATFLOW_SAVE_RATE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CHATFLOW_SAVE_RATE: %w", err)
		}
		cfg.HTTP.SaveRate = f
	}
	return nil
}
