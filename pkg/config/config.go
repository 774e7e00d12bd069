// Package config provides functionality for loading and validating the
// application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"menubot/bot-app/pkg/model"
)

// Load reads configuration from the TOML config file and the environment.
// Env var overrides use prefix MENUBOT_, so telegram_token becomes
// MENUBOT_TELEGRAM_TOKEN. A missing config file is not an error; defaults
// apply.
func Load() (*model.Config, error) {
	v := viper.New()

	v.SetDefault("database_type", "sqlite")
	v.SetDefault("database_dir", "./data")
	v.SetDefault("database_file", "menubot.db")
	v.SetDefault("log_folder", "./logs")
	v.SetDefault("command_log", "commands.log")
	v.SetDefault("error_log", "errors.log")
	v.SetDefault("info_log", "info.log")
	v.SetDefault("delete_cascade", string(model.CascadeSubtree))
	v.SetDefault("session_timeout_minutes", 30)
	v.SetDefault("session_cleanup_minutes", 5)
	v.SetDefault("telegram_poll_timeout_sec", 30)
	v.SetDefault("telegram_token", "")
	v.SetDefault("bootstrap_admin_id", 0)
	v.SetDefault("bootstrap_admin_name", "")

	v.SetConfigType("toml")

	if cfgPath := os.Getenv("MENUBOT_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MENUBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration values that have a fixed set of legal
// options.
func Validate(cfg *model.Config) error {
	if !cfg.CascadePolicyValue().Valid() {
		return fmt.Errorf("invalid delete_cascade %q: must be %q or %q",
			cfg.DeleteCascade, model.CascadeSubtree, model.CascadeReparent)
	}
	if cfg.DatabaseType != "sqlite" {
		return fmt.Errorf("unsupported database_type %q", cfg.DatabaseType)
	}
	return nil
}

// configDir returns the directory searched for config.toml, using
// XDG_CONFIG_HOME or falling back to ~/.config.
func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "menubot")
}
