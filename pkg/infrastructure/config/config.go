// Package config loads planner configuration from defaults, an optional
// YAML file, a .env file and CAPPLAN_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vsinha/capplan/pkg/domain/services/allocation"
)

// EnvPrefix is the prefix for environment overrides, e.g. CAPPLAN_ENGINE_POLICY
const EnvPrefix = "CAPPLAN"

// Config holds all application configuration.
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Scenario ScenarioConfig `mapstructure:"scenario"`
	Output   OutputConfig   `mapstructure:"output"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// EngineConfig selects and tunes the allocation engine.
type EngineConfig struct {
	Policy      string  `mapstructure:"policy"`
	Parallel    bool    `mapstructure:"parallel"`
	LPTolerance float64 `mapstructure:"lp_tolerance"`
}

// ScenarioConfig locates input tables. Dir is used for any file left empty.
type ScenarioConfig struct {
	Dir          string `mapstructure:"dir"`
	Demand       string `mapstructure:"demand"`
	Rates        string `mapstructure:"rates"`
	Calendar     string `mapstructure:"calendar"`
	LineCalendar string `mapstructure:"line_calendar"`
}

// OutputConfig controls rendering. Precision only affects display.
type OutputConfig struct {
	Format    string `mapstructure:"format"`
	Dir       string `mapstructure:"dir"`
	Precision int32  `mapstructure:"precision"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration. An empty configPath means defaults plus
// environment only.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("engine.policy", string(allocation.PolicyGreedy))
	v.SetDefault("engine.parallel", false)
	v.SetDefault("engine.lp_tolerance", allocation.DefaultLPTolerance)
	v.SetDefault("scenario.dir", "")
	v.SetDefault("scenario.demand", "")
	v.SetDefault("scenario.rates", "")
	v.SetDefault("scenario.calendar", "")
	v.SetDefault("scenario.line_calendar", "")
	v.SetDefault("output.format", "text")
	v.SetDefault("output.dir", "")
	v.SetDefault("output.precision", 2)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := allocation.ParsePolicy(c.Engine.Policy); err != nil {
		return fmt.Errorf("invalid engine.policy: %w", err)
	}
	if c.Engine.LPTolerance < 0 {
		return fmt.Errorf("invalid engine.lp_tolerance: must be non-negative, got %v", c.Engine.LPTolerance)
	}
	switch c.Output.Format {
	case "text", "json", "csv", "html":
	default:
		return fmt.Errorf("invalid output.format: %q (expected text, json, csv or html)", c.Output.Format)
	}
	if c.Output.Precision < 0 || c.Output.Precision > 12 {
		return fmt.Errorf("invalid output.precision: %d (expected 0-12)", c.Output.Precision)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	return nil
}
