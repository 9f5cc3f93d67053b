package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultAPIBaseURL     = "https://api.x.com/1.1"
	defaultPageSize       = 20
	defaultRequestTimeout = 10 * time.Second
	defaultStartView      = "timeline"
)

// Config holds runtime settings for the CLI app.
type Config struct {
	AuthToken         string        `mapstructure:"auth-token"`
	CT0               string        `mapstructure:"ct0"`
	BearerToken       string        `mapstructure:"bearer-token"`
	APIBaseURL        string        `mapstructure:"api-base-url"`
	DBPath            string        `mapstructure:"db-path"`
	PageSize          int           `mapstructure:"page-size"`
	RequestTimeout    time.Duration `mapstructure:"request-timeout"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second"`
	LogFile           string        `mapstructure:"log-file"`
	LogLevel          string        `mapstructure:"log-level"`
	StartView         string        `mapstructure:"start-view"`
}

// DefaultPath is ~/.config/xfeed/config.yml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "xfeed", "config.yml"), nil
}

// Load reads XFEED_* environment variables, the optional YAML file at path
// (DefaultPath when empty) and any changed flags, then validates the result.
// A missing config file is not an error.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	var cfg Config

	v := viper.New()
	v.SetEnvPrefix("XFEED")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("auth-token", "")
	v.SetDefault("ct0", "")
	v.SetDefault("bearer-token", "")
	v.SetDefault("api-base-url", defaultAPIBaseURL)
	v.SetDefault("db-path", defaultDBPath())
	v.SetDefault("page-size", defaultPageSize)
	v.SetDefault("request-timeout", defaultRequestTimeout)
	v.SetDefault("requests-per-second", 0)
	v.SetDefault("log-file", "")
	v.SetDefault("log-level", "info")
	v.SetDefault("start-view", defaultStartView)

	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return cfg, err
		}
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return cfg, fmt.Errorf("bind flags: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultDBPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "xfeed.db"
	}
	return filepath.Join(dir, "xfeed", "xfeed.db")
}

func (c Config) Validate() error {
	if c.AuthToken == "" {
		return errors.New("auth-token is required (XFEED_AUTH_TOKEN)")
	}
	if c.CT0 == "" {
		return errors.New("ct0 is required (XFEED_CT0)")
	}
	if c.APIBaseURL == "" {
		return errors.New("api-base-url is required")
	}
	if strings.HasSuffix(c.APIBaseURL, "/") {
		return fmt.Errorf("api-base-url must not end with '/': %s", c.APIBaseURL)
	}
	if c.DBPath == "" {
		return errors.New("db-path is required")
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("page-size must be between 1 and 100: %d", c.PageSize)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request-timeout must be positive: %s", c.RequestTimeout)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests-per-second must not be negative: %v", c.RequestsPerSecond)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.StartView {
	case "timeline", "bookmarks", "notifications":
	default:
		return fmt.Errorf("start-view must be timeline, bookmarks or notifications: %s", c.StartView)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log-level must be debug, info, warn or error: %s", c.LogLevel)
	}
	return level, nil
}
