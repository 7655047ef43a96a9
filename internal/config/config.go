package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/station-partitioner/internal/simulation"
	"github.com/eugenenazirov/station-partitioner/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultMaxWeights     = 100_000
	defaultMaxTrials      = 1000
	defaultLogLevel       = "info"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > Environment variables > YAML config > Defaults
type Config struct {
	Port                 string
	Stations             int
	MaxWeights           int
	MaxTrials            int
	LogLevel             string
	MetricsEnabled       bool
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	Simulation           Simulation
}

// Simulation configures the trial runner.
type Simulation struct {
	Trials  int
	Seed    uint64
	Workers int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string         `yaml:"port"`
	Stations             int            `yaml:"stations"`
	MaxWeights           int            `yaml:"max_weights"`
	MaxTrials            int            `yaml:"max_trials"`
	LogLevel             string         `yaml:"log_level"`
	MetricsEnabled       *bool          `yaml:"metrics_enabled"`
	ShutdownGracePeriod  string         `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string         `yaml:"read_header_timeout"`
	WriteTimeout         string         `yaml:"write_timeout"`
	IdleTimeout          string         `yaml:"idle_timeout"`
	EnableRequestLogging *bool          `yaml:"enable_request_logging"`
	RateLimit            *yamlRateLimit `yaml:"rate_limit"`
	Simulation           yamlSimulation `yaml:"simulation"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type yamlSimulation struct {
	Trials  int     `yaml:"trials"`
	Seed    *uint64 `yaml:"seed"`
	Workers int     `yaml:"workers"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	Stations       *int
	RateLimitRPS   *float64
	RateLimitBurst *int
	Trials         *int
	Seed           *uint64
	Workers        *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment variables > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	// Apply environment variables (override YAML)
	applyEnvConfig(&cfg)

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Stations:             storage.DefaultStationCount,
		MaxWeights:           defaultMaxWeights,
		MaxTrials:            defaultMaxTrials,
		LogLevel:             defaultLogLevel,
		MetricsEnabled:       true,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		Simulation: Simulation{
			Trials: simulation.DefaultTrials,
			Seed:   uint64(time.Now().UnixNano()),
		},
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
// Malformed durations are reported together.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.Stations != 0 {
		cfg.Stations = yamlCfg.Stations
	}
	if yamlCfg.MaxWeights != 0 {
		cfg.MaxWeights = yamlCfg.MaxWeights
	}
	if yamlCfg.MaxTrials != 0 {
		cfg.MaxTrials = yamlCfg.MaxTrials
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.MetricsEnabled != nil {
		cfg.MetricsEnabled = *yamlCfg.MetricsEnabled
	}
	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	var errs error
	errs = multierr.Append(errs, parseDuration("shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod))
	errs = multierr.Append(errs, parseDuration("read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout))
	errs = multierr.Append(errs, parseDuration("write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout))
	errs = multierr.Append(errs, parseDuration("idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout))

	if yamlCfg.RateLimit != nil {
		cfg.RateLimitRPS = yamlCfg.RateLimit.RPS
		cfg.RateLimitBurst = yamlCfg.RateLimit.Burst
	}

	if yamlCfg.Simulation.Trials != 0 {
		cfg.Simulation.Trials = yamlCfg.Simulation.Trials
	}
	if yamlCfg.Simulation.Seed != nil {
		cfg.Simulation.Seed = *yamlCfg.Simulation.Seed
	}
	if yamlCfg.Simulation.Workers != 0 {
		cfg.Simulation.Workers = yamlCfg.Simulation.Workers
	}

	return errs
}

func parseDuration(key, raw string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// applyEnvConfig applies environment variable configuration.
// Values that fail to parse are ignored.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if value, ok := envInt("STATIONS"); ok {
		cfg.Stations = value
	}

	if value, ok := envInt("MAX_WEIGHTS"); ok {
		cfg.MaxWeights = value
	}

	if value, ok := envInt("MAX_TRIALS"); ok {
		cfg.MaxTrials = value
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if value, ok := envInt("RATE_LIMIT_BURST"); ok && value >= 0 {
		cfg.RateLimitBurst = value
	}

	if value, ok := envInt("SIMULATION_TRIALS"); ok {
		cfg.Simulation.Trials = value
	}

	if seed := strings.TrimSpace(os.Getenv("SIMULATION_SEED")); seed != "" {
		if value, err := strconv.ParseUint(seed, 10, 64); err == nil {
			cfg.Simulation.Seed = value
		}
	}
}

func envInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.Stations != nil {
		cfg.Stations = *overrides.Stations
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.Trials != nil {
		cfg.Simulation.Trials = *overrides.Trials
	}

	if overrides.Seed != nil {
		cfg.Simulation.Seed = *overrides.Seed
	}

	if overrides.Workers != nil {
		cfg.Simulation.Workers = *overrides.Workers
	}
}

// validateConfig validates the final configuration and reports every violation.
func validateConfig(cfg Config) error {
	var errs error
	if cfg.RateLimitRPS < 0 {
		errs = multierr.Append(errs, fmt.Errorf("RATE_LIMIT_RPS must be >= 0"))
	}
	if cfg.RateLimitBurst < 0 {
		errs = multierr.Append(errs, fmt.Errorf("RATE_LIMIT_BURST must be >= 0"))
	}
	if err := storage.ValidateStationCount(cfg.Stations); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log level: %w", err))
	}
	if cfg.MaxWeights < 1 {
		errs = multierr.Append(errs, fmt.Errorf("max weights must be positive, got %d", cfg.MaxWeights))
	}
	if cfg.MaxTrials < 1 {
		errs = multierr.Append(errs, fmt.Errorf("max trials must be positive, got %d", cfg.MaxTrials))
	}
	if cfg.Simulation.Trials < 1 {
		errs = multierr.Append(errs, fmt.Errorf("simulation trials must be positive, got %d", cfg.Simulation.Trials))
	}
	if cfg.Simulation.Workers < 0 {
		errs = multierr.Append(errs, fmt.Errorf("simulation workers must be >= 0, got %d", cfg.Simulation.Workers))
	}
	return errs
}
