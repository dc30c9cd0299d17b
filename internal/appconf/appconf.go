// Package appconf loads the service configuration from defaults, an optional
// config.yaml and OVERYONDER_* environment variables.
package appconf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps the -env flag to an Environment. Unknown values mean
// development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// Config holds all application configuration.
type Config struct {
	Env       Environment  `mapstructure:"-"`
	EnvName   string       `mapstructure:"env"`
	ApiKeys   []string     `mapstructure:"api_keys"`
	RateLimit int          `mapstructure:"rate_limit"`
	Server    ServerConfig `mapstructure:"server"`
	Log       LogConfig    `mapstructure:"log"`
	Search    SearchConfig `mapstructure:"search"`
	Oracle    OracleConfig `mapstructure:"oracle"`
	Valkey    ValkeyConfig `mapstructure:"valkey"`
	NATS      NATSConfig   `mapstructure:"nats"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// ReadTimeout and WriteTimeout are in seconds. Search streams may outlive
	// WriteTimeout, so it should exceed a full search.
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SearchConfig struct {
	DefaultHeadingDeg   float64 `mapstructure:"default_heading_deg"`
	DistanceIncrementKm float64 `mapstructure:"distance_increment_km"`
	MaxSearchAttempts   int     `mapstructure:"max_search_attempts"`
}

type OracleConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	UserAgent        string `mapstructure:"user_agent"`
	Language         string `mapstructure:"language"`
	InterCallDelayMs int    `mapstructure:"inter_call_delay_ms"`
	MaxRetries       int    `mapstructure:"max_retries"`
	RetryDelayMs     int    `mapstructure:"retry_delay_ms"`
	TimeoutMs        int    `mapstructure:"timeout_ms"`
}

func (o OracleConfig) InterCallDelay() time.Duration {
	return time.Duration(o.InterCallDelayMs) * time.Millisecond
}

func (o OracleConfig) RetryDelay() time.Duration {
	return time.Duration(o.RetryDelayMs) * time.Millisecond
}

func (o OracleConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutMs) * time.Millisecond
}

// ValkeyConfig selects the Valkey session store when Addr is set.
type ValkeyConfig struct {
	Addr       string `mapstructure:"addr"`
	SessionTTL int    `mapstructure:"session_ttl_seconds"`
}

// NATSConfig enables search broadcasting when URL is set.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("api_keys", []string{"test"})
	v.SetDefault("rate_limit", 5)

	v.SetDefault("server.port", 4000)
	v.SetDefault("server.read_timeout", 5)
	v.SetDefault("server.write_timeout", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("search.default_heading_deg", 90)
	v.SetDefault("search.distance_increment_km", 50)
	v.SetDefault("search.max_search_attempts", 50)

	v.SetDefault("oracle.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("oracle.user_agent", "OverYonder/1.0")
	v.SetDefault("oracle.language", "en")
	v.SetDefault("oracle.inter_call_delay_ms", 1000)
	v.SetDefault("oracle.max_retries", 3)
	v.SetDefault("oracle.retry_delay_ms", 2000)
	v.SetDefault("oracle.timeout_ms", 10000)

	v.SetDefault("valkey.addr", "")
	v.SetDefault("valkey.session_ttl_seconds", 86400)
	v.SetDefault("nats.url", "")
}

// Load reads configuration. configPaths are searched for config.yaml in order; with
// none given the working directory and ./configs are used.
func Load(configPaths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{".", "./configs"}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// OVERYONDER_ORACLE_BASE_URL -> oracle.base_url
	v.SetEnvPrefix("OVERYONDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Env = EnvFlagToEnvironment(cfg.EnvName)
	cfg.ApiKeys = splitKeys(cfg.ApiKeys)

	return &cfg, nil
}

// SetAPIKeys replaces the API keys from a comma separated list.
func (c *Config) SetAPIKeys(list string) {
	c.ApiKeys = splitKeys([]string{list})
}

func splitKeys(in []string) []string {
	var out []string
	for _, item := range in {
		for _, k := range strings.Split(item, ",") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
	}
	return out
}

// Validate checks every option and reports all violations at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if len(c.ApiKeys) == 0 {
		errs = append(errs, "at least one api key is required")
	}
	if c.Search.DefaultHeadingDeg < 0 || c.Search.DefaultHeadingDeg >= 360 {
		errs = append(errs, fmt.Sprintf("search.default_heading_deg must be in [0, 360), got %v", c.Search.DefaultHeadingDeg))
	}
	if c.Search.DistanceIncrementKm <= 0 {
		errs = append(errs, "search.distance_increment_km must be positive")
	}
	if c.Search.MaxSearchAttempts <= 0 {
		errs = append(errs, "search.max_search_attempts must be positive")
	}
	if c.Oracle.BaseURL == "" {
		errs = append(errs, "oracle.base_url is required")
	}
	if c.Oracle.UserAgent == "" {
		errs = append(errs, "oracle.user_agent is required")
	}
	if c.Oracle.InterCallDelayMs < 0 {
		errs = append(errs, "oracle.inter_call_delay_ms must not be negative")
	}
	if c.Oracle.MaxRetries < 0 {
		errs = append(errs, "oracle.max_retries must not be negative")
	}
	if c.Oracle.RetryDelayMs < 0 {
		errs = append(errs, "oracle.retry_delay_ms must not be negative")
	}
	if c.Oracle.TimeoutMs <= 0 {
		errs = append(errs, "oracle.timeout_ms must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
