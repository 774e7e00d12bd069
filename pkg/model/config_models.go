package model

// Config holds the application configuration. Values are loaded by
// pkg/config from the TOML config file with MENUBOT_ env overrides.
type Config struct {
	DatabaseType string `mapstructure:"database_type"`
	DatabaseDir  string `mapstructure:"database_dir"`
	DatabaseFile string `mapstructure:"database_file"`

	LogFolder  string `mapstructure:"log_folder"`
	CommandLog string `mapstructure:"command_log"`
	ErrorLog   string `mapstructure:"error_log"`
	InfoLog    string `mapstructure:"info_log"`

	// DeleteCascade selects what ButtonDelete does with descendants:
	// "subtree" removes them, "reparent" moves direct children to root.
	DeleteCascade string `mapstructure:"delete_cascade"`

	SessionTimeoutMinutes  int `mapstructure:"session_timeout_minutes"`
	SessionCleanupMinutes  int `mapstructure:"session_cleanup_minutes"`
	TelegramPollTimeoutSec int `mapstructure:"telegram_poll_timeout_sec"`

	TelegramToken string `mapstructure:"telegram_token"`

	// BootstrapAdminID, when non-zero, is added to the admin set on startup.
	BootstrapAdminID   int64  `mapstructure:"bootstrap_admin_id"`
	BootstrapAdminName string `mapstructure:"bootstrap_admin_name"`
}

// CascadePolicyValue returns the configured delete policy, defaulting to
// subtree deletion when the key is unset.
func (c *Config) CascadePolicyValue() CascadePolicy {
	if c.DeleteCascade == "" {
		return CascadeSubtree
	}
	return CascadePolicy(c.DeleteCascade)
}
