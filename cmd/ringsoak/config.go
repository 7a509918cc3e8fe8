package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var validate = validator.New()

type Config struct {
	Capacity  int           `mapstructure:"capacity" yaml:"capacity" validate:"required,gt=0"`
	Readers   int           `mapstructure:"readers" yaml:"readers" validate:"required,gt=0"`
	Batch     int           `mapstructure:"batch" yaml:"batch" validate:"required,gt=0,ltefield=Capacity"`
	Writes    int           `mapstructure:"writes" yaml:"writes" validate:"required,gt=0"`
	Interval  time.Duration `mapstructure:"interval" yaml:"interval" validate:"gte=0"`
	SlowEvery int           `mapstructure:"slow_every" yaml:"slow_every" validate:"gte=0"`
	SlowDelay time.Duration `mapstructure:"slow_delay" yaml:"slow_delay" validate:"required_with=SlowEvery"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	LogLevel  string        `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	Metrics   MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr" validate:"required_if=Enabled true"`
}

// slow reports whether consumer i is one of the deliberately slow ones.
func (c Config) slow(i int) bool {
	return c.SlowEvery > 0 && (i+1)%c.SlowEvery == 0
}

// loadConfig reads cfgFile (or ./config.yaml when empty) into v, then
// unmarshals and validates the result. A missing default config file is
// not an error.
func loadConfig(v *viper.Viper, cfgFile string) (Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ringsoak")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
