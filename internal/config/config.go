package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moamenhredeen/oasc/internal/errs"
	"github.com/moamenhredeen/oasc/internal/request"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Environment variables that carry static credentials
const (
	EnvBasicToken  = "AUTHORIZATION_BASIC_TOKEN"
	EnvBearerToken = "AUTHORIZATION_BEARER_TOKEN"
)

// DefaultSpecFile is read when neither --spec nor the config names a document
const DefaultSpecFile = "openapi.yaml"

// Config represents the application configuration
type Config struct {
	Spec      string        `mapstructure:"spec" validate:"required"`
	Server    string        `mapstructure:"server" validate:"omitempty,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	UserAgent string        `mapstructure:"user_agent"`
	Auth      AuthConfig    `mapstructure:"auth"`
	Log       LogConfig     `mapstructure:"log"`
}

// AuthConfig holds the static credentials injected into every request
type AuthConfig struct {
	BasicToken  string `mapstructure:"basic_token"`
	BearerToken string `mapstructure:"bearer_token"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Verbose bool   `mapstructure:"verbose"`
	File    string `mapstructure:"file"`
}

// Credentials resolves the configured tokens once for the synthesizer
func (c *Config) Credentials() request.Credentials {
	return request.Credentials{
		Basic:  c.Auth.BasicToken,
		Bearer: c.Auth.BearerToken,
	}
}

// Load reads the configuration from a file, the environment and flags
// If configPath is empty, "oasc.{yaml,toml,json}" is searched in the current
// directory and $HOME/.config/oasc; a missing file is not an error
// flags may be nil; only flags the user actually set override other sources
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OASC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("auth.basic_token", "OASC_AUTH_BASIC_TOKEN", EnvBasicToken)
	_ = v.BindEnv("auth.bearer_token", "OASC_AUTH_BEARER_TOKEN", EnvBearerToken)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("oasc")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/oasc")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errs.Wrap(errs.CodeInvalidConfig, err, "failed to read config file")
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.CodeInvalidConfig, err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults configures sensible default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("spec", DefaultSpecFile)
	v.SetDefault("server", "")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("user_agent", "oasc/1.0")
	v.SetDefault("auth.basic_token", "")
	v.SetDefault("auth.bearer_token", "")
	v.SetDefault("log.verbose", false)
	v.SetDefault("log.file", "")
}

// flagKeys maps command-line flags onto config keys
var flagKeys = map[string]string{
	"spec":     "spec",
	"server":   "server",
	"timeout":  "timeout",
	"verbose":  "log.verbose",
	"log-file": "log.file",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errs.Wrap(errs.CodeInvalidConfig, err, "invalid config value for %s", strings.ToLower(fe.Field()))
		}
		return errs.Wrap(errs.CodeInvalidConfig, err, "invalid config")
	}
	return nil
}
