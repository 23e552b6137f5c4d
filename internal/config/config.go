package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the entire application configuration
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	FTP      FTPConfig      `mapstructure:"ftp"`
	Locks    LocksConfig    `mapstructure:"locks"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Backups  BackupsConfig  `mapstructure:"backups"`
	Janitor  JanitorConfig  `mapstructure:"janitor"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	BindAddr     string `mapstructure:"bind_addr"`
	AuthToken    string `mapstructure:"auth_token"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	IdleTimeout  string `mapstructure:"idle_timeout"`
}

// FTPConfig contains settings for sessions against remote FTP servers
type FTPConfig struct {
	ConnectTimeout string `mapstructure:"connect_timeout"`
	Secure         bool   `mapstructure:"secure"`
	SkipTLSVerify  bool   `mapstructure:"skip_tls_verify"`
}

// LocksConfig contains advisory lock settings
type LocksConfig struct {
	DefaultTTLMinutes int `mapstructure:"default_ttl_minutes"`
}

// UploadConfig contains upload limits
type UploadConfig struct {
	MaxSizeMB int `mapstructure:"max_size_mb"`
}

// BackupsConfig contains snapshot retention settings
type BackupsConfig struct {
	RetentionDays int `mapstructure:"retention_days"` // 0 keeps backups forever
}

// JanitorConfig contains background sweep settings
type JanitorConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	SweepInterval string `mapstructure:"sweep_interval"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads configuration from the specified file path
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Set defaults
	viper.SetDefault("http.bind_addr", "0.0.0.0:8080")
	viper.SetDefault("http.auth_token", "")
	viper.SetDefault("http.read_timeout", "30s")
	viper.SetDefault("http.write_timeout", "30s")
	viper.SetDefault("http.idle_timeout", "60s")
	viper.SetDefault("ftp.connect_timeout", "30s")
	viper.SetDefault("ftp.secure", false)
	viper.SetDefault("ftp.skip_tls_verify", false)
	viper.SetDefault("locks.default_ttl_minutes", 15)
	viper.SetDefault("upload.max_size_mb", 50)
	viper.SetDefault("backups.retention_days", 0)
	viper.SetDefault("janitor.enabled", true)
	viper.SetDefault("janitor.sweep_interval", "10m")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("database.path", "ezedit.db")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.HTTP.BindAddr == "" {
		return fmt.Errorf("http.bind_addr is required")
	}
	if _, err := time.ParseDuration(c.HTTP.ReadTimeout); err != nil {
		return fmt.Errorf("invalid http.read_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.HTTP.WriteTimeout); err != nil {
		return fmt.Errorf("invalid http.write_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.HTTP.IdleTimeout); err != nil {
		return fmt.Errorf("invalid http.idle_timeout: %w", err)
	}

	if _, err := time.ParseDuration(c.FTP.ConnectTimeout); err != nil {
		return fmt.Errorf("invalid ftp.connect_timeout: %w", err)
	}

	if c.Locks.DefaultTTLMinutes <= 0 {
		return fmt.Errorf("locks.default_ttl_minutes must be positive")
	}
	if c.Upload.MaxSizeMB <= 0 {
		return fmt.Errorf("upload.max_size_mb must be positive")
	}
	if c.Backups.RetentionDays < 0 {
		return fmt.Errorf("backups.retention_days must not be negative")
	}
	if _, err := time.ParseDuration(c.Janitor.SweepInterval); err != nil {
		return fmt.Errorf("invalid janitor.sweep_interval: %w", err)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// GetReadTimeout returns the HTTP read timeout as time.Duration
func (c *HTTPConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetWriteTimeout returns the HTTP write timeout as time.Duration
func (c *HTTPConfig) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetIdleTimeout returns the HTTP idle timeout as time.Duration
func (c *HTTPConfig) GetIdleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	if d == 0 {
		return 60 * time.Second
	}
	return d
}

// GetConnectTimeout returns the FTP connect timeout as time.Duration
func (c *FTPConfig) GetConnectTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ConnectTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetDefaultTTL returns the default lock lifetime as time.Duration
func (c *LocksConfig) GetDefaultTTL() time.Duration {
	return time.Duration(c.DefaultTTLMinutes) * time.Minute
}

// GetMaxSize returns the upload cap in bytes
func (c *UploadConfig) GetMaxSize() int64 {
	return int64(c.MaxSizeMB) << 20
}

// GetRetention returns the backup retention window; zero keeps forever
func (c *BackupsConfig) GetRetention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// GetSweepInterval returns the janitor sweep interval as time.Duration
func (c *JanitorConfig) GetSweepInterval() time.Duration {
	d, _ := time.ParseDuration(c.SweepInterval)
	if d == 0 {
		return 10 * time.Minute
	}
	return d
}
