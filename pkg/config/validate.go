package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Backend.BaseURL == "" {
		errs = append(errs, fmt.Errorf("backend.base_url is required"))
	} else if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.base_url must be an absolute URL, got %q", c.Backend.BaseURL))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}

	if c.Backend.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("backend.timeout must be > 0, got %s", c.Backend.Timeout))
	}

	if c.Attachments.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("attachments.cache_size must be >= 0, got %d", c.Attachments.CacheSize))
	}
	for _, limit := range []struct {
		name  string
		bytes int64
	}{
		{"attachments.max_audio_bytes", c.Attachments.MaxAudioBytes},
		{"attachments.max_image_bytes", c.Attachments.MaxImageBytes},
		{"attachments.max_text_bytes", c.Attachments.MaxTextBytes},
	} {
		if limit.bytes < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %d", limit.name, limit.bytes))
		}
	}

	return errors.Join(errs...)
}
