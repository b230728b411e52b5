package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/dataflow/pkg/persistence/middleware"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when no --config flag is given. It may be absent.
const DefaultConfigFile = "dataflow.yaml"

// EnvEncryptionKey overrides store.encryption_key so the key can stay out of the file.
const EnvEncryptionKey = "DATAFLOW_ENCRYPTION_KEY"

// Config holds the CLI settings.
type Config struct {
	LogLevel string      `yaml:"log_level"`
	Store    StoreConfig `yaml:"store"`
	HTTP     HTTPConfig  `yaml:"http"`
	MCP      MCPConfig   `yaml:"mcp"`
}

// StoreConfig selects where named graphs live.
type StoreConfig struct {
	Backend string      `yaml:"backend"` // memory | file | redis
	Dir     string      `yaml:"dir"`
	Format  string      `yaml:"format"` // json | yaml
	Redis   RedisConfig `yaml:"redis"`

	// EncryptionKey is a base64 AES-256 key. When set, documents are sealed at rest.
	EncryptionKey string `yaml:"encryption_key"`
	// FallbackKeys are older keys still accepted for reading.
	FallbackKeys []string `yaml:"fallback_keys"`
}

// RedisConfig configures the Redis store and lock.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	TTL      string `yaml:"ttl"`
}

// HTTPConfig configures the REST server.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// MCPConfig configures the MCP server in SSE mode.
type MCPConfig struct {
	Port int `yaml:"port"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Store: StoreConfig{
			Backend: "file",
			Dir:     ".dataflow/graphs",
			Format:  "json",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "dataflow:graph:",
			},
		},
		HTTP: HTTPConfig{Port: 8080},
		MCP:  MCPConfig{Port: 8081},
	}
}

// LoadConfig reads a YAML (or JSON) config file over the defaults.
// A missing file is only an error when required is true.
func LoadConfig(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			applyEnv(cfg)
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if key := os.Getenv(EnvEncryptionKey); key != "" {
		cfg.Store.EncryptionKey = key
	}
}

// Validate checks enumerations and durations.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Store.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("unknown store format %q", c.Store.Format)
	}
	if _, err := c.Store.Redis.Expiration(); err != nil {
		return err
	}
	if _, err := c.Store.Encryption(); err != nil {
		return err
	}
	return nil
}

// Encryption builds the key set for sealing documents. ActiveKey is nil when no key is configured.
func (s StoreConfig) Encryption() (cfg middleware.EncryptionConfig, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return cfg, errors.New("fallback_keys set without encryption_key")
		}
		return cfg, nil
	}
	if cfg.ActiveKey, err = middleware.ParseKey(s.EncryptionKey); err != nil {
		return cfg, fmt.Errorf("encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return cfg, fmt.Errorf("fallback_keys[%d]: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	return cfg, nil
}

// Expiration parses the TTL; empty means no expiration.
func (r RedisConfig) Expiration() (time.Duration, error) {
	if r.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid redis ttl %q: %w", r.TTL, err)
	}
	return d, nil
}
