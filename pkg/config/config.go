// Package config provides configuration loading and validation for the segtree
// CLI and server.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/danihelis/algorithms/pkg/engine"
	"github.com/danihelis/algorithms/pkg/safeconv"
)

// Sentinel validation errors.
var (
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidMaxBody     = errors.New("invalid server max body size")
	ErrInvalidLength      = errors.New("engine max length must be positive")
	ErrInvalidAlgebra     = errors.New("unknown engine algebra")
	ErrInvalidLogLevel    = errors.New("invalid logging level")
	ErrInvalidLogFormat   = errors.New("logging format must be text or json")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Default configuration values.
const (
	defaultPort      = 8080
	defaultHost      = "127.0.0.1"
	defaultMaxBody   = "1MB"
	defaultMaxLength = 1 << 20
	defaultAlgebra   = engine.AlgebraSum
	maxPort          = 65535
	envPrefix        = "SEGTREE"
)

// Config holds all configuration for the segtree binary.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	MaxBody         string        `mapstructure:"max_body"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Port            int           `mapstructure:"port"`

	// MaxBodyBytes is MaxBody parsed during validation.
	MaxBodyBytes int64 `mapstructure:"-"`
}

// Addr returns the host:port listen address.
func (sc ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", sc.Host, sc.Port)
}

// EngineConfig holds defaults for trees built by the server.
type EngineConfig struct {
	Algebra   string `mapstructure:"algebra"`
	Target    int64  `mapstructure:"target"`
	MaxLength int    `mapstructure:"max_length"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SlogLevel returns Level as a [slog.Level].
func (lc LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(lc.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, lc.Level)
	}

	return level, nil
}

// ObservabilityConfig holds OpenTelemetry export settings.
// An empty OTLPEndpoint disables export.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from file and environment variables.
// With an empty configPath the file is searched as segtree.yaml in the
// working directory, ./config and /etc/segtree; a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("segtree")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/segtree")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := Validate(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Server defaults.
	viperCfg.SetDefault("server.port", defaultPort)
	viperCfg.SetDefault("server.host", defaultHost)
	viperCfg.SetDefault("server.max_body", defaultMaxBody)
	viperCfg.SetDefault("server.read_timeout", "10s")
	viperCfg.SetDefault("server.write_timeout", "10s")
	viperCfg.SetDefault("server.idle_timeout", "60s")
	viperCfg.SetDefault("server.shutdown_timeout", "5s")

	// Engine defaults.
	viperCfg.SetDefault("engine.algebra", defaultAlgebra)
	viperCfg.SetDefault("engine.target", 0)
	viperCfg.SetDefault("engine.max_length", defaultMaxLength)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", LogFormatText)

	// Observability defaults.
	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.sample_ratio", 0.0)
	viperCfg.SetDefault("observability.environment", "")
}

// Validate checks config and fills derived fields. Callers that overlay flags
// on a loaded Config must validate it again.
func Validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, config.Server.Port)
	}

	maxBody, err := humanize.ParseBytes(config.Server.MaxBody)
	if err != nil || maxBody == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidMaxBody, config.Server.MaxBody)
	}

	config.Server.MaxBodyBytes = safeconv.SafeInt64(maxBody)

	if config.Engine.MaxLength <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLength, config.Engine.MaxLength)
	}

	if !slices.Contains(engine.Names(), config.Engine.Algebra) {
		return fmt.Errorf("%w: %q", ErrInvalidAlgebra, config.Engine.Algebra)
	}

	_, err = config.Logging.SlogLevel()
	if err != nil {
		return err
	}

	if config.Logging.Format != LogFormatText && config.Logging.Format != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Observability.SampleRatio < 0 || config.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Observability.SampleRatio)
	}

	return nil
}
