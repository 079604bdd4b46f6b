package gateway

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the daemon configuration, loaded from an optional YAML
// file on top of defaults.
type Config struct {
	ListenAddr      string           `mapstructure:"listen_addr"`
	TempDir         string           `mapstructure:"temp_dir"`
	SampleRate      int              `mapstructure:"sample_rate"`
	DigitTimeoutMS  int              `mapstructure:"digit_timeout_ms"`
	DefaultLanguage string           `mapstructure:"default_language"`
	LogLevel        string           `mapstructure:"log_level"`
	LogFormat       string           `mapstructure:"log_format"`
	Sweep           SweepConfig      `mapstructure:"sweep"`
	Synth           ProviderConfig   `mapstructure:"synth"`
	Transcoder      TranscoderConfig `mapstructure:"transcoder"`
}

type SweepConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"`
	MaxAgeMinutes   int `mapstructure:"max_age_minutes"`
}

// ProviderConfig selects a vendor implementation plus free-form
// vendor-specific settings.
type ProviderConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type TranscoderConfig struct {
	Provider string `mapstructure:"provider"`
	Binary   string `mapstructure:"binary"`
}

// LoadConfig reads the config file at path, or returns pure defaults
// when path is empty.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("listen_addr", ":4573")
	v.SetDefault("temp_dir", "")
	v.SetDefault("sample_rate", 8000)
	v.SetDefault("digit_timeout_ms", 5000)
	v.SetDefault("default_language", "es")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("sweep.interval_minutes", 60)
	v.SetDefault("sweep.max_age_minutes", 60)
	v.SetDefault("synth.provider", "edge")
	v.SetDefault("transcoder.provider", "sox")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
