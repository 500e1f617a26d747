// Package config loads hxview server settings with Viper from a YAML file,
// HXVIEW_ environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: HXVIEW_SERVER_PORT sets
// server.port.
const EnvPrefix = "HXVIEW"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	State   StateConfig   `mapstructure:"state"`
	Render  RenderConfig  `mapstructure:"render"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// ComponentPath is where the component registry is mounted.
	ComponentPath string `mapstructure:"component_path"`
}

// StateConfig selects how component state is shipped to clients. With an
// empty Key state travels as plain JSON.
type StateConfig struct {
	Key       string `mapstructure:"key"`
	Sensitive bool   `mapstructure:"sensitive"`
}

// Sealed reports whether state is signed or encrypted.
func (s StateConfig) Sealed() bool {
	return s.Key != ""
}

type RenderConfig struct {
	HashlessTags []string `mapstructure:"hashless_tags"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.component_path", "/_c")
	v.SetDefault("state.key", "")
	v.SetDefault("state.sensitive", false)
	v.SetDefault("render.hashless_tags", []string{"html", "head", "body"})
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("log.level", "info")
}

// New returns a Viper instance with defaults and environment overrides
// configured. file, when not empty, is read by Load.
func New(file string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
	}
	return v
}

// Load reads the config file (if one was set), unmarshals v and validates
// the result.
func Load(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// slices from env vars arrive as one space-separated string
	if v.IsSet("render.hashless_tags") && len(cfg.Render.HashlessTags) <= 1 {
		cfg.Render.HashlessTags = v.GetStringSlice("render.hashless_tags")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// minKeyLen is the shortest accepted state key.
const minKeyLen = 16

// Validate checks values for correctness.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is not in range 0-65535", c.Server.Port))
	}
	if strings.ContainsAny(c.Server.Host, " /;|&$`") {
		errs = append(errs, fmt.Errorf("server.host %q contains invalid characters", c.Server.Host))
	}
	if !strings.HasPrefix(c.Server.ComponentPath, "/") {
		errs = append(errs, fmt.Errorf("server.component_path %q must start with /", c.Server.ComponentPath))
	}
	if c.State.Sealed() && len(c.State.Key) < minKeyLen {
		errs = append(errs, fmt.Errorf("state.key must be at least %d bytes", minKeyLen))
	}
	if c.State.Sensitive && !c.State.Sealed() {
		errs = append(errs, errors.New("state.sensitive requires state.key"))
	}
	for _, tag := range c.Render.HashlessTags {
		if tag == "" || strings.ContainsAny(tag, " <>/\"'=") {
			errs = append(errs, fmt.Errorf("render.hashless_tags: invalid tag %q", tag))
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	return errors.Join(errs...)
}
