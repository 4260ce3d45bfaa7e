package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"sysdash/internal/session"
)

type Config struct {
	Addr            string        `yaml:"addr"`
	DBPath          string        `yaml:"db_path"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	AlertLimit      int           `yaml:"alert_limit"`
	AutoRefresh     bool          `yaml:"auto_refresh"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	SessionKey      string        `yaml:"session_key"`
	SecureCookies   bool          `yaml:"secure_cookies"`
	WatchStore      bool          `yaml:"watch_store"`
	LogLevel        string        `yaml:"log_level"`
	LogFile         string        `yaml:"log_file"`
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		DBPath:          "log.db",
		CacheTTL:        10 * time.Second,
		AlertLimit:      50,
		RefreshInterval: session.DefaultInterval,
		LogLevel:        "info",
	}
}

// Load layers defaults, the optional YAML file named by APP_CONFIG_FILE, a
// .env file and the process environment, later layers winning. Variables
// already set in the environment are not overwritten by .env.
func Load() (Config, error) {
	envFile := getenv("APP_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Default()
	if file := os.Getenv("APP_CONFIG_FILE"); file != "" {
		if err := loadYAML(file, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Addr = getenv("APP_ADDR", cfg.Addr)
	cfg.DBPath = getenv("APP_DB_PATH", cfg.DBPath)
	cfg.CacheTTL = getenvDuration("APP_CACHE_TTL", cfg.CacheTTL)
	cfg.AlertLimit = getenvInt("APP_ALERT_LIMIT", cfg.AlertLimit)
	cfg.AutoRefresh = getenvBool("APP_AUTO_REFRESH", cfg.AutoRefresh)
	cfg.RefreshInterval = getenvDuration("APP_REFRESH_INTERVAL", cfg.RefreshInterval)
	cfg.SessionKey = getenv("APP_SESSION_KEY", cfg.SessionKey)
	cfg.SecureCookies = getenvBool("APP_SECURE_COOKIES", cfg.SecureCookies)
	cfg.WatchStore = getenvBool("APP_WATCH_STORE", cfg.WatchStore)
	cfg.LogLevel = getenv("APP_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getenv("APP_LOG_FILE", cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("config: db path is empty")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("config: cache ttl must be positive, got %s", c.CacheTTL)
	}
	if c.AlertLimit <= 0 {
		return fmt.Errorf("config: alert limit must be positive, got %d", c.AlertLimit)
	}
	if err := session.ValidateInterval(c.RefreshInterval); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func loadYAML(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return d
	}
	return n
}

func getenvDuration(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return d
	}
	return dur
}

func getenvBool(k string, d bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(k)))
	if v == "" {
		return d
	}
	if b, err := cast.ToBoolE(v); err == nil {
		return b
	}
	switch v {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	return d
}
