// internal/submission/config.go
package submission

import (
	"fmt"
	"time"

	"intern-portal/internal/common/config"
)

// Config holds the orchestrator's settings.
type Config struct {
	Constraints      FileConstraints
	UploadTimeout    time.Duration
	CheckProgramOpen bool
}

func DefaultConfig() *Config {
	return &Config{
		Constraints:      DefaultConstraints(),
		UploadTimeout:    60 * time.Second,
		CheckProgramOpen: true,
	}
}

// FromAppConfig derives orchestrator settings from the loaded configuration.
func FromAppConfig(cfg *config.Config) *Config {
	return &Config{
		Constraints: FileConstraints{
			MaxSize:           cfg.Uploads.MaxFileSize,
			AllowedExtensions: cfg.Uploads.AllowedExtensions,
			AllowedMimeTypes:  cfg.Uploads.AllowedMimeTypes,
		},
		UploadTimeout:    cfg.API.UploadTimeout,
		CheckProgramOpen: true,
	}
}

func (c *Config) Validate() error {
	if c.UploadTimeout <= 0 {
		return fmt.Errorf("upload timeout must be positive")
	}
	if c.Constraints.MaxSize <= 0 {
		return fmt.Errorf("max file size must be positive")
	}
	if len(c.Constraints.AllowedExtensions) == 0 {
		return fmt.Errorf("allowed extensions must not be empty")
	}
	return nil
}
