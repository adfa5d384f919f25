package adapter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("LSTAR_CONFIG_DIR", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://littlstar.com/api/v1/", cfg.Service.BaseURL)
	assert.Equal(t, 20, cfg.Service.PageSize)
	assert.Equal(t, 30*time.Second, cfg.Service.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Downloads.ProgressInterval)
	assert.False(t, cfg.IsAuthenticated())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LSTAR_CONFIG_DIR", dir)
	t.Chdir(t.TempDir())

	yaml := `
service:
  base_url: https://staging.littlstar.com/api/v1/
  page_size: 50
  timeout: 5s
downloads:
  dir: ~/Movies/lstar
player:
  command: mpv
  args: ["--fs"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("LSTAR_SERVICE_PAGE_SIZE", "10")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://staging.littlstar.com/api/v1/", cfg.Service.BaseURL)
	assert.Equal(t, 10, cfg.Service.PageSize, "environment wins over file")
	assert.Equal(t, 5*time.Second, cfg.Service.Timeout)
	assert.Equal(t, []string{"--fs"}, cfg.Player.Args)
	assert.NotContains(t, cfg.Downloads.Dir, "~")
	assert.Equal(t, 2, cfg.Service.Retries, "unset keys keep defaults")
}

func TestSaveTokenAndClearAuth(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LSTAR_CONFIG_DIR", dir)
	t.Chdir(t.TempDir())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("player:\n  command: vlc\n"), 0644))

	require.NoError(t, SaveToken("tok-123", "jane"))
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", cfg.Auth.Token)
	assert.Equal(t, "jane", cfg.Auth.Username)
	assert.Equal(t, "vlc", cfg.Player.Command, "other settings are preserved")
	assert.True(t, cfg.IsAuthenticated())

	require.NoError(t, ClearAuth())
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Auth.Token)
	assert.Equal(t, "vlc", cfg.Player.Command)
}

func TestSaveConfig(t *testing.T) {
	t.Setenv("LSTAR_CONFIG_DIR", t.TempDir())
	t.Chdir(t.TempDir())

	cfg := DefaultConfig()
	cfg.Service.PageSize = 40
	cfg.Logging.Level = "DEBUG"
	require.NoError(t, SaveConfig(cfg))

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 40, loaded.Service.PageSize)
	assert.Equal(t, "DEBUG", loaded.Logging.Level)
	assert.Equal(t, cfg.Downloads.ProgressInterval, loaded.Downloads.ProgressInterval)
}
