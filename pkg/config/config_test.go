package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menubot/bot-app/pkg/model"
)

// writeConfig points MENUBOT_CONFIG at a throwaway TOML file so tests never
// pick up a real config from the search path.
func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("MENUBOT_CONFIG", path)
}

func TestLoadDefaults(t *testing.T) {
	writeConfig(t, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "menubot.db", cfg.DatabaseFile)
	assert.Equal(t, string(model.CascadeSubtree), cfg.DeleteCascade)
	assert.Equal(t, 30, cfg.SessionTimeoutMinutes)
	assert.Equal(t, 5, cfg.SessionCleanupMinutes)
	assert.Equal(t, 30, cfg.TelegramPollTimeoutSec)
	assert.Empty(t, cfg.TelegramToken)
	assert.Zero(t, cfg.BootstrapAdminID)
}

func TestLoadFromFile(t *testing.T) {
	writeConfig(t, `
database_dir = "/var/lib/menubot"
delete_cascade = "reparent"
telegram_token = "123:abc"
bootstrap_admin_id = 42
bootstrap_admin_name = "root"
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/menubot", cfg.DatabaseDir)
	assert.Equal(t, model.CascadeReparent, cfg.CascadePolicyValue())
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, int64(42), cfg.BootstrapAdminID)
	assert.Equal(t, "root", cfg.BootstrapAdminName)
}

func TestEnvOverridesFile(t *testing.T) {
	writeConfig(t, `delete_cascade = "subtree"`)
	t.Setenv("MENUBOT_DELETE_CASCADE", "reparent")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, model.CascadeReparent, cfg.CascadePolicyValue())
}

func TestLoadRejectsBadCascade(t *testing.T) {
	writeConfig(t, `delete_cascade = "orphan"`)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDatabase(t *testing.T) {
	writeConfig(t, `database_type = "postgres"`)

	_, err := Load()
	assert.Error(t, err)
}

func TestCascadePolicyDefaultsToSubtree(t *testing.T) {
	cfg := &model.Config{}
	assert.Equal(t, model.CascadeSubtree, cfg.CascadePolicyValue())
}
