// Package config holds the settings shared by the daemon and the CLI. Values
// come from viper: defaults, then .gbsearch/config.yaml (or --config), then
// GBSEARCH_* environment variables, then bound command line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Keys, as spelled in the config file.
const (
	KeyAutoWildcard  = "auto_wildcard"
	KeyCaseSensitive = "case_sensitive"
	KeyLogLevel      = "log_level"
	KeyWatch         = "watch"
)

// EnvPrefix is prepended to upper-cased keys: GBSEARCH_AUTO_WILDCARD.
const EnvPrefix = "GBSEARCH"

// Config is the decoded settings.
type Config struct {
	// AutoWildcard appends '*' to every search keyword lacking one.
	AutoWildcard bool `mapstructure:"auto_wildcard"`

	// CaseSensitive makes query patterns compare runes exactly.
	CaseSensitive bool `mapstructure:"case_sensitive"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// Watch reloads the current dataset when its files change.
	Watch bool `mapstructure:"watch"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		AutoWildcard: true,
		LogLevel:     "info",
		Watch:        true,
	}
}

// SetDefaults registers Default() on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyAutoWildcard, d.AutoWildcard)
	v.SetDefault(KeyCaseSensitive, d.CaseSensitive)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyWatch, d.Watch)
}

// Load reads settings into v and decodes them. configFile, when set, names
// the config file explicitly and must exist; otherwise config.yaml is looked
// up in configDir and may be absent.
func Load(v *viper.Viper, configDir, configFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return Config{}, err
	}
	return c, nil
}

// WriteDefault writes the default settings to configDir/config.yaml. It
// refuses to overwrite an existing file.
func WriteDefault(configDir string) (string, error) {
	v := viper.New()
	SetDefaults(v)
	path := filepath.Join(configDir, "config.yaml")
	if err := v.SafeWriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: want debug, info, warn or error", s)
	}
	return l, nil
}

// Level is ParseLevel without the error, for a Config that Load accepted.
func (c Config) Level() slog.Level {
	l, _ := ParseLevel(c.LogLevel)
	return l
}
