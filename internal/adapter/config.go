package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/littlstar/lstar/internal/adapter/source/littlstar"
	"github.com/spf13/viper"
)

const (
	appName        = "lstar"
	configFileName = "config"
	configFileType = "yaml"
)

// Config holds all application configuration
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Downloads DownloadsConfig `mapstructure:"downloads"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Player    PlayerConfig    `mapstructure:"player"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServiceConfig points the client at the media service
type ServiceConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	LicenseFile string        `mapstructure:"license_file"` // TOML license descriptor, optional
	PageSize    int           `mapstructure:"page_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"` // Extra attempts for idempotent requests
}

// AuthConfig holds the persisted session
type AuthConfig struct {
	Token    string `mapstructure:"token"`
	Username string `mapstructure:"username"` // Display only
}

// DownloadsConfig controls offline copies
type DownloadsConfig struct {
	Dir              string        `mapstructure:"dir"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
}

// CacheConfig controls the listing cache. An empty dir keeps it in memory.
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command   string   `mapstructure:"command"`
	Args      []string `mapstructure:"args"`
	StartFlag string   `mapstructure:"start_flag"` // e.g., "--start=" or "--start-time="
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"` // Empty logs to stderr
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:  littlstar.DefaultBaseURL,
			PageSize: 20,
			Timeout:  30 * time.Second,
			Retries:  2,
		},
		Downloads: DownloadsConfig{
			Dir:              filepath.Join(defaultDataPath(), "downloads"),
			ProgressInterval: 250 * time.Millisecond,
		},
		Cache: CacheConfig{
			Dir: filepath.Join(defaultDataPath(), "cache"),
		},
		Player: PlayerConfig{
			Args: []string{},
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the per-user data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName)
	}
}

// defaultConfigPath returns the config directory. LSTAR_CONFIG_DIR overrides it.
func defaultConfigPath() string {
	if dir := os.Getenv("LSTAR_CONFIG_DIR"); dir != "" {
		return dir
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

// ConfigFile returns the path SaveConfig writes to
func ConfigFile() string {
	return filepath.Join(defaultConfigPath(), configFileName+"."+configFileType)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(defaultConfigPath())
	v.AddConfigPath(".")

	// LSTAR_SERVICE_BASE_URL overrides service.base_url
	v.SetEnvPrefix("LSTAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setValues(v, DefaultConfig(), v.SetDefault)
	return v
}

// setValues writes every key of cfg through set, keeping the snake_case key names
func setValues(v *viper.Viper, cfg *Config, set func(string, any)) {
	set("service.base_url", cfg.Service.BaseURL)
	set("service.license_file", cfg.Service.LicenseFile)
	set("service.page_size", cfg.Service.PageSize)
	set("service.timeout", cfg.Service.Timeout)
	set("service.retries", cfg.Service.Retries)

	set("auth.token", cfg.Auth.Token)
	set("auth.username", cfg.Auth.Username)

	set("downloads.dir", cfg.Downloads.Dir)
	set("downloads.progress_interval", cfg.Downloads.ProgressInterval)

	set("cache.dir", cfg.Cache.Dir)

	set("player.command", cfg.Player.Command)
	set("player.args", cfg.Player.Args)
	set("player.start_flag", cfg.Player.StartFlag)

	set("logging.file", cfg.Logging.File)
	set("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	v := newViper()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Downloads.Dir = expandHome(cfg.Downloads.Dir)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	cfg.Service.LicenseFile = expandHome(cfg.Service.LicenseFile)
	return cfg, nil
}

// SaveConfig saves the configuration to the user config file
func SaveConfig(cfg *Config) error {
	v := viper.New()
	setValues(v, cfg, v.Set)
	return writeConfig(v)
}

// SaveToken persists the session after a successful login
func SaveToken(token, username string) error {
	return updateConfig(func(v *viper.Viper) {
		v.Set("auth.token", token)
		v.Set("auth.username", username)
	})
}

// ClearAuth removes the persisted session while keeping every other setting
func ClearAuth() error {
	return updateConfig(func(v *viper.Viper) {
		v.Set("auth.token", "")
		v.Set("auth.username", "")
	})
}

// updateConfig rewrites only the keys touched by fn
func updateConfig(fn func(v *viper.Viper)) error {
	v := viper.New()
	v.SetConfigFile(ConfigFile())
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	fn(v)
	return writeConfig(v)
}

func writeConfig(v *viper.Viper) error {
	if err := os.MkdirAll(defaultConfigPath(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(ConfigFile()); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// IsAuthenticated returns true if a session token is stored
func (c *Config) IsAuthenticated() bool {
	return c.Auth.Token != ""
}

// ClearCache removes the listing cache
func (c *Config) ClearCache() error {
	if c.Cache.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(c.Cache.Dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
