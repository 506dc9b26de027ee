package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigEnv overrides the config file path.
const ConfigEnv = "MT4J_CONFIG"

type DBConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int           `yaml:"max_body_bytes"`
}

type Config struct {
	Server struct {
		HTTPAddr          string  `yaml:"http_addr"`
		Mode              string  `yaml:"mode"`
		UploadRatePerSec  float64 `yaml:"upload_rate_per_sec"`
		UploadBurst       int     `yaml:"upload_burst"`
		MaxUploadBytes    int64   `yaml:"max_upload_bytes"`
		ShutdownTimeoutMS int     `yaml:"shutdown_timeout_ms"`
	} `yaml:"server"`
	DB      DBConfig `yaml:"db"`
	Storage struct {
		Dir string `yaml:"dir"`
	} `yaml:"storage"`
	ImportLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"import_log"`
	Inbox struct {
		Enabled  bool   `yaml:"enabled"`
		Dir      string `yaml:"dir"`
		Schedule string `yaml:"schedule"`
	} `yaml:"inbox"`
	Fetch  FetchConfig `yaml:"fetch"`
	Report struct {
		CacheTTL       time.Duration `yaml:"cache_ttl"`
		DefaultPerPage int           `yaml:"default_per_page"`
	} `yaml:"report"`
}

func (c *Config) Validate() error {
	if c.Server.Mode != "debug" && c.Server.Mode != "release" && c.Server.Mode != "test" {
		return fmt.Errorf("invalid server.mode '%s': must be 'debug', 'release' or 'test'", c.Server.Mode)
	}
	if c.DB.Driver != "sqlite" && c.DB.Driver != "postgres" {
		return fmt.Errorf("invalid db.driver '%s': must be 'sqlite' or 'postgres'", c.DB.Driver)
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		return errors.New("db.dsn cannot be empty")
	}
	if c.Server.UploadRatePerSec <= 0 {
		return fmt.Errorf("server.upload_rate_per_sec must be positive, got %.2f", c.Server.UploadRatePerSec)
	}
	if c.Report.DefaultPerPage != 100 && c.Report.DefaultPerPage != 1000 {
		return fmt.Errorf("report.default_per_page must be 100 or 1000, got %d", c.Report.DefaultPerPage)
	}
	if c.Inbox.Enabled && strings.TrimSpace(c.Inbox.Dir) == "" {
		return errors.New("inbox.dir is required when the inbox is enabled")
	}
	return nil
}

// Defaults returns a configuration suitable for a local single-user install.
func Defaults() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.UploadRatePerSec == 0 {
		c.Server.UploadRatePerSec = 1
	}
	if c.Server.UploadBurst == 0 {
		c.Server.UploadBurst = 5
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 20 << 20
	}
	if c.Server.ShutdownTimeoutMS == 0 {
		c.Server.ShutdownTimeoutMS = 10000
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.DSN == "" && c.DB.Driver == "sqlite" {
		c.DB.DSN = "data/mt4-journal.db"
	}
	if c.DB.MaxOpenConns == 0 {
		c.DB.MaxOpenConns = 10
	}
	if c.DB.MaxIdleConns == 0 {
		c.DB.MaxIdleConns = 5
	}
	if c.DB.ConnMaxLifetime == 0 {
		c.DB.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "data/statements"
	}
	if c.ImportLog.Dir == "" {
		c.ImportLog.Dir = "logs/imports"
	}
	if c.ImportLog.RetentionDays == 0 {
		c.ImportLog.RetentionDays = 30
	}
	if c.Inbox.Dir == "" {
		c.Inbox.Dir = "data/inbox"
	}
	if c.Inbox.Schedule == "" {
		c.Inbox.Schedule = "0 */5 * * * *"
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "mt4-journal/0.3"
	}
	if c.Fetch.MaxBodyBytes == 0 {
		c.Fetch.MaxBodyBytes = 20 << 20
	}
	if c.Report.CacheTTL == 0 {
		c.Report.CacheTTL = 10 * time.Minute
	}
	if c.Report.DefaultPerPage == 0 {
		c.Report.DefaultPerPage = 1000
	}
}

// LoadConfig reads a YAML config. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// ConfigPath resolves the config file from the environment.
func ConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(ConfigEnv)); p != "" {
		return p
	}
	return "config.yaml"
}
