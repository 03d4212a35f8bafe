// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the main portal client configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	Uploads UploadsConfig `mapstructure:"uploads"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig holds settings for the remote portal backend.
type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`        // JSON calls
	UploadTimeout time.Duration `mapstructure:"upload_timeout"` // multipart uploads
}

// SessionConfig controls where the auth token lives between invocations.
type SessionConfig struct {
	Redis    RedisConfig   `mapstructure:"redis"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// UploadsConfig holds the client-side file constraints.
type UploadsConfig struct {
	MaxFileSize       int64    `mapstructure:"max_file_size"` // bytes
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	AllowedMimeTypes  []string `mapstructure:"allowed_mime_types"`
}

type CacheConfig struct {
	DocumentTypesTTL time.Duration `mapstructure:"document_types_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ListenAddress string `mapstructure:"listen_address"`
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "intern-portal"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.API.UploadTimeout <= 0 {
		c.API.UploadTimeout = 60 * time.Second
	}
	if c.Session.TokenTTL <= 0 {
		c.Session.TokenTTL = 24 * time.Hour
	}
	if c.Uploads.MaxFileSize <= 0 {
		c.Uploads.MaxFileSize = 5 * 1024 * 1024
	}
	if len(c.Uploads.AllowedExtensions) == 0 {
		c.Uploads.AllowedExtensions = []string{"pdf", "doc", "docx", "jpg", "jpeg", "png"}
	}
	if len(c.Uploads.AllowedMimeTypes) == 0 {
		c.Uploads.AllowedMimeTypes = []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"image/jpeg",
			"image/png",
		}
	}
	if c.Cache.DocumentTypesTTL <= 0 {
		c.Cache.DocumentTypesTTL = 10 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Metrics.ListenAddress == "" {
		c.Metrics.ListenAddress = ":9105"
	}
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout >= c.API.UploadTimeout {
		return fmt.Errorf("api.upload_timeout (%s) must exceed api.timeout (%s)",
			c.API.UploadTimeout, c.API.Timeout)
	}
	for _, ext := range c.Uploads.AllowedExtensions {
		if strings.HasPrefix(ext, ".") {
			return fmt.Errorf("uploads.allowed_extensions entries must not carry a leading dot: %q", ext)
		}
	}
	return nil
}
