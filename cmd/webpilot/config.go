package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"webpilot-go/infrastructure/browser"
	"webpilot-go/infrastructure/logging"
	"webpilot-go/infrastructure/oracle"
	"webpilot-go/infrastructure/repository"
)

// Oracle providers.
const (
	providerGemini = "gemini"
	providerOpenAI = "openai"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig
	Oracle  OracleConfig
	Log     LogConfig
	Journal JournalConfig
	Capture CaptureConfig
}

// BrowserConfig holds browser driver configuration.
type BrowserConfig struct {
	Headless        bool
	WindowWidth     int
	WindowHeight    int
	ViewportWidth   int
	ViewportHeight  int
	UserDataDir     string
	NavigateTimeout time.Duration
	ActionTimeout   time.Duration
	CaptureTimeout  time.Duration
}

// OracleConfig holds reasoning service configuration.
type OracleConfig struct {
	Provider     string // "gemini" or "openai"
	Model        string
	APIKey       string
	BaseURL      string
	APIKeyHeader string // openai only: "Authorization" or "api-key"
	Temperature  float64
	Timeout      time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Dir        string // prod builds only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	JSON       bool
}

// JournalConfig holds run journal configuration.
type JournalConfig struct {
	Enabled  bool
	URI      string
	Database string
}

// CaptureConfig holds snapshot dump configuration.
type CaptureConfig struct {
	SaveDir string
}

// LoadConfig loads configuration from file and environment variables.
// Environment variables use the WEBPILOT_ prefix, e.g. WEBPILOT_ORACLE_API_KEY.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("webpilot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("WEBPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config

	config.Browser.Headless = v.GetBool("browser.headless")
	config.Browser.WindowWidth = v.GetInt("browser.window_width")
	config.Browser.WindowHeight = v.GetInt("browser.window_height")
	config.Browser.ViewportWidth = v.GetInt("browser.viewport_width")
	config.Browser.ViewportHeight = v.GetInt("browser.viewport_height")
	config.Browser.UserDataDir = v.GetString("browser.user_data_dir")
	config.Browser.NavigateTimeout = v.GetDuration("browser.navigate_timeout")
	config.Browser.ActionTimeout = v.GetDuration("browser.action_timeout")
	config.Browser.CaptureTimeout = v.GetDuration("browser.capture_timeout")

	config.Oracle.Provider = strings.ToLower(v.GetString("oracle.provider"))
	config.Oracle.Model = v.GetString("oracle.model")
	config.Oracle.APIKey = v.GetString("oracle.api_key")
	config.Oracle.BaseURL = v.GetString("oracle.base_url")
	config.Oracle.APIKeyHeader = v.GetString("oracle.api_key_header")
	config.Oracle.Temperature = v.GetFloat64("oracle.temperature")
	config.Oracle.Timeout = v.GetDuration("oracle.timeout")

	config.Log.Level = v.GetString("log.level")
	config.Log.Dir = v.GetString("log.dir")
	config.Log.MaxSizeMB = v.GetInt("log.max_size_mb")
	config.Log.MaxBackups = v.GetInt("log.max_backups")
	config.Log.MaxAgeDays = v.GetInt("log.max_age_days")
	config.Log.JSON = v.GetBool("log.json")

	config.Journal.Enabled = v.GetBool("journal.enabled")
	config.Journal.URI = v.GetString("journal.uri")
	config.Journal.Database = v.GetString("journal.database")

	config.Capture.SaveDir = v.GetString("capture.save_dir")

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	drv := browser.DefaultDriverConfig()
	v.SetDefault("browser.headless", drv.Headless)
	v.SetDefault("browser.window_width", drv.WindowWidth)
	v.SetDefault("browser.window_height", drv.WindowHeight)
	v.SetDefault("browser.viewport_width", drv.ViewportWidth)
	v.SetDefault("browser.viewport_height", drv.ViewportHeight)
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.navigate_timeout", drv.NavigateTimeout.String())
	v.SetDefault("browser.action_timeout", drv.ActionTimeout.String())
	v.SetDefault("browser.capture_timeout", drv.CaptureTimeout.String())

	gem := oracle.DefaultGeminiConfig()
	v.SetDefault("oracle.provider", providerGemini)
	v.SetDefault("oracle.model", "")
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.base_url", "")
	v.SetDefault("oracle.api_key_header", oracle.DefaultHTTPConfig().APIKeyHeader)
	v.SetDefault("oracle.temperature", float64(gem.Temperature))
	v.SetDefault("oracle.timeout", gem.Timeout.String())

	lg := logging.DefaultConfig()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.max_size_mb", lg.MaxSizeMB)
	v.SetDefault("log.max_backups", lg.MaxBackups)
	v.SetDefault("log.max_age_days", lg.MaxAgeDays)
	v.SetDefault("log.json", false)

	mdb := repository.DefaultMongoDBConfig()
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.uri", mdb.URI)
	v.SetDefault("journal.database", mdb.Database)

	v.SetDefault("capture.save_dir", "")
}

// Validate checks values that have no usable fallback.
func (c *Config) Validate() error {
	switch c.Oracle.Provider {
	case providerGemini, providerOpenAI:
	default:
		return fmt.Errorf("unknown oracle provider %q (want %s or %s)", c.Oracle.Provider, providerGemini, providerOpenAI)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Oracle.Temperature < 0 || c.Oracle.Temperature > 2 {
		return fmt.Errorf("oracle temperature %.2f out of range [0, 2]", c.Oracle.Temperature)
	}
	return nil
}

// DriverConfig returns the browser driver configuration.
func (c *Config) DriverConfig() *browser.DriverConfig {
	cfg := browser.DefaultDriverConfig()
	cfg.Headless = c.Browser.Headless
	cfg.WindowWidth = c.Browser.WindowWidth
	cfg.WindowHeight = c.Browser.WindowHeight
	cfg.ViewportWidth = c.Browser.ViewportWidth
	cfg.ViewportHeight = c.Browser.ViewportHeight
	cfg.UserDataDir = c.Browser.UserDataDir
	cfg.NavigateTimeout = c.Browser.NavigateTimeout
	cfg.ActionTimeout = c.Browser.ActionTimeout
	cfg.CaptureTimeout = c.Browser.CaptureTimeout
	return cfg
}

// LoggingConfig returns the logging configuration.
func (c *Config) LoggingConfig() *logging.Config {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = level
	}
	cfg.Dir = c.Log.Dir
	cfg.MaxSizeMB = c.Log.MaxSizeMB
	cfg.MaxBackups = c.Log.MaxBackups
	cfg.MaxAgeDays = c.Log.MaxAgeDays
	cfg.JSON = c.Log.JSON
	return cfg
}

// GeminiConfig returns the Gemini client configuration.
func (c *Config) GeminiConfig() *oracle.GeminiConfig {
	cfg := oracle.DefaultGeminiConfig()
	cfg.APIKey = c.Oracle.APIKey
	cfg.BaseURL = c.Oracle.BaseURL
	cfg.Temperature = float32(c.Oracle.Temperature)
	cfg.Timeout = c.Oracle.Timeout
	if c.Oracle.Model != "" {
		cfg.Model = c.Oracle.Model
	}
	return cfg
}

// HTTPConfig returns the OpenAI-compatible client configuration.
func (c *Config) HTTPConfig() *oracle.HTTPConfig {
	cfg := oracle.DefaultHTTPConfig()
	cfg.APIKey = c.Oracle.APIKey
	cfg.APIKeyHeader = c.Oracle.APIKeyHeader
	cfg.Temperature = float32(c.Oracle.Temperature)
	cfg.Timeout = c.Oracle.Timeout
	if c.Oracle.BaseURL != "" {
		cfg.BaseURL = c.Oracle.BaseURL
	}
	if c.Oracle.Model != "" {
		cfg.Model = c.Oracle.Model
	}
	return cfg
}

// MongoDBConfig returns the journal database configuration.
func (c *Config) MongoDBConfig() *repository.MongoDBConfig {
	cfg := repository.DefaultMongoDBConfig()
	cfg.URI = c.Journal.URI
	cfg.Database = c.Journal.Database
	return cfg
}
