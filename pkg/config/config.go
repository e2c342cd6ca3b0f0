// Package config loads oac settings from config.yaml, OAC_* environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/openagents-control/oac/pkg/telemetry"
)

// EnvPrefix is the prefix of every environment variable oac reads
const EnvPrefix = "OAC"

// DefaultSearchPaths are the directories searched for config.yaml, in order
var DefaultSearchPaths = []string{"./.oac", "$HOME/.oac"}

// Config is the resolved oac configuration
type Config struct {
	AgentDir    string   `mapstructure:"agent_dir"`
	Extensions  []string `mapstructure:"extensions"`
	Concurrency int      `mapstructure:"concurrency"`
	OutputDir   string   `mapstructure:"output_dir"`
	Targets     []string `mapstructure:"targets"`
	LogLevel    string   `mapstructure:"log_level"`
	LogFormat   string   `mapstructure:"log_format"`

	Tracing  TracingConfig            `mapstructure:"tracing"`
	Adapters map[string]AdapterConfig `mapstructure:"adapters"`
}

// TracingConfig controls OpenTelemetry export
type TracingConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Sampler string  `mapstructure:"sampler"`
	Ratio   float64 `mapstructure:"ratio"`
}

// AdapterConfig holds per adapter overrides
type AdapterConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// New returns a viper instance wired to the OAC_ environment and to
// config.yaml in paths (DefaultSearchPaths when none are given), with
// every default registered.
func New(paths ...string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = DefaultSearchPaths
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	SetDefaults(v)
	return v
}

// SetDefaults registers the default of every known key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("agent_dir", ".opencode/agent")
	v.SetDefault("extensions", []string{"md"})
	v.SetDefault("concurrency", 8)
	v.SetDefault("output_dir", ".")
	v.SetDefault("targets", []string{"claude"})
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sampler", telemetry.SamplerRatio)
	v.SetDefault("tracing.ratio", 1.0)
	v.SetDefault("adapters", map[string]any{})
}

// Load reads the config file if one exists and decodes every setting. A
// missing config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, errors.Wrap(err, "failed to read config file")
		}
	} else {
		logrus.WithField("file", v.ConfigFileUsed()).Debug("loaded config file")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return cfg, errors.Wrap(err, "failed to create config decoder")
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return cfg, errors.Wrap(err, "failed to decode configuration")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings no command can work with
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return errors.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if len(c.Extensions) == 0 {
		return errors.New("extensions must not be empty")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "invalid log_level")
	}
	if !slices.Contains([]string{"text", "json"}, c.LogFormat) {
		return errors.Errorf("invalid log_format %q (want text or json)", c.LogFormat)
	}
	switch c.Tracing.Sampler {
	case telemetry.SamplerAlways, telemetry.SamplerNever, telemetry.SamplerRatio:
	default:
		return errors.Errorf("invalid tracing.sampler %q", c.Tracing.Sampler)
	}
	if c.Tracing.Ratio < 0 || c.Tracing.Ratio > 1 {
		return errors.Errorf("tracing.ratio must be within [0, 1], got %v", c.Tracing.Ratio)
	}
	return nil
}

// AdapterOutputDir returns the directory documents of adapter name are
// written under: the adapter override when set, otherwise fallback.
func (c Config) AdapterOutputDir(name, fallback string) string {
	if a, ok := c.Adapters[name]; ok && a.OutputDir != "" {
		return a.OutputDir
	}
	return fallback
}

// TelemetryConfig converts the tracing settings for telemetry.InitTracer
func (c Config) TelemetryConfig(serviceVersion string) telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Tracing.Enabled,
		ServiceName:    "oac",
		ServiceVersion: serviceVersion,
		SamplerType:    c.Tracing.Sampler,
		SamplerRatio:   c.Tracing.Ratio,
	}
}
