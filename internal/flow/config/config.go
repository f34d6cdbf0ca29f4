// Package config loads host configuration for the Flow CLI and webhook
// server: execution timeout, log level, bind address, JWT signing
// secret, cache backend selection. This is host configuration read
// from flow.yaml/flow.yml and the environment — distinct from and
// unrelated to a workflow's own `config:` block (name/version/timeout
// declared inside a .flow program source), which the analyzer and
// runtime handle entirely separately.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the host-level configuration for running or serving Flow
// workflows.
type Config struct {
	Execution ExecutionConfig `mapstructure:"execution"`
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       LogConfig       `mapstructure:"log"`
}

// ExecutionConfig controls run behavior under flowd. DefaultTimeout is the
// deadline flowd applies to every triggered run; a workflow's own
// `config: timeout` entry is not consulted by flowd.
type ExecutionConfig struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig controls the webhook host.
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// CacheConfig selects and configures the compiled-program cache backend.
type CacheConfig struct {
	Backend  string `mapstructure:"backend"` // "memory" or "redis"
	RedisURL string `mapstructure:"redis_url"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Load reads flow.yaml/flow.yml from the current directory (if present),
// layers environment variables over it, and fills in defaults for
// anything left unset.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("execution.default_timeout", 30*time.Second)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetConfigName("flow")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FLOW")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Cache.Backend != "memory" && cfg.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be \"memory\" or \"redis\", got: %s", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisURL == "" {
		return fmt.Errorf("cache.redis_url is required when cache.backend is \"redis\"")
	}
	return nil
}

// InProject reports whether the current directory looks like a Flow
// project: it contains a flow.yaml/flow.yml, or at least one .flow file.
func InProject() bool {
	if _, err := os.Stat("flow.yaml"); err == nil {
		return true
	}
	if _, err := os.Stat("flow.yml"); err == nil {
		return true
	}
	matches, _ := filepath.Glob("*.flow")
	return len(matches) > 0
}
