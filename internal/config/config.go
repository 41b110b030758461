// Package config loads service configuration from an optional YAML file
// and YANGVAL_* environment variables, in that order.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jacoelho/yang"
	"github.com/jacoelho/yang/internal/logging"
)

const envPrefix = "YANGVAL_"

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        logging.Config   `yaml:"log"`
	Validation ValidationConfig `yaml:"validation"`
	Cache      CacheConfig      `yaml:"cache"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ValidationConfig holds the per-call validation options.
type ValidationConfig struct {
	MaxDepth     int    `yaml:"max_depth"`
	UnknownNodes string `yaml:"unknown_nodes"`
}

// CacheConfig controls the compiled schema cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			MaxBodyBytes:    4 << 20,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: logging.DefaultConfig(),
		Validation: ValidationConfig{
			MaxDepth:     256,
			UnknownNodes: "error",
		},
		Cache: CacheConfig{Enabled: true},
	}
}

// Load returns defaults overlaid with the YAML file at path (skipped when
// path is empty) and then with environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := Parse(bytes.NewReader(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Unknown fields are rejected.
func Parse(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("LISTEN_ADDR", &c.Server.ListenAddr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("UNKNOWN_NODES", &c.Validation.UnknownNodes)

	if v, ok := lookup(envPrefix + "MAX_DEPTH"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_DEPTH: %w", envPrefix, err)
		}
		c.Validation.MaxDepth = n
	}
	if v, ok := lookup(envPrefix + "MAX_BODY_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_BODY_BYTES: %w", envPrefix, err)
		}
		c.Server.MaxBodyBytes = n
	}
	if v, ok := lookup(envPrefix + "CACHE_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCACHE_ENABLED: %w", envPrefix, err)
		}
		c.Cache.Enabled = b
	}
	return nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be > 0")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must be >= 0")
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.Validation.MaxDepth < 0 {
		return fmt.Errorf("validation.max_depth must be >= 0")
	}
	if _, err := yang.ParseUnknownNodePolicy(c.Validation.UnknownNodes); err != nil {
		return fmt.Errorf("validation.unknown_nodes: %w", err)
	}
	return nil
}

// Options converts the validation settings into library options.
func (c Config) Options() (yang.Options, error) {
	policy, err := yang.ParseUnknownNodePolicy(c.Validation.UnknownNodes)
	if err != nil {
		return yang.Options{}, err
	}
	return yang.NewOptions().
		WithMaxDepth(c.Validation.MaxDepth).
		WithUnknownNodes(policy).
		WithCache(c.Cache.Enabled), nil
}
