package config

import (
	"fmt"
	"net/url"
	"strings"
)

// placeholderKeys are values shipped in sample configs that must never reach the API.
var placeholderKeys = []string{
	"your_api_key_here",
	"your-api-key",
	"changeme",
	"<api_key>",
}

// ConfigurationError means the process cannot serve requests with the loaded config.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Validate checks the settings the service needs before it may start.
func (c *Config) Validate() error {
	key := strings.TrimSpace(c.LLM.APIKey)
	if key == "" {
		return &ConfigurationError{Field: "llm.api_key", Reason: "missing"}
	}
	for _, p := range placeholderKeys {
		if strings.EqualFold(key, p) {
			return &ConfigurationError{Field: "llm.api_key", Reason: "placeholder value"}
		}
	}

	if c.LLM.BaseURL == "" {
		return &ConfigurationError{Field: "llm.base_url", Reason: "missing"}
	}
	u, err := url.Parse(c.LLM.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigurationError{Field: "llm.base_url", Reason: "not an absolute URL"}
	}

	if c.LLM.Model == "" {
		return &ConfigurationError{Field: "llm.model", Reason: "missing"}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return &ConfigurationError{Field: "llm.temperature", Reason: "must be between 0 and 2"}
	}
	if c.LLM.MaxInputChars < 0 {
		return &ConfigurationError{Field: "llm.max_input_chars", Reason: "must not be negative"}
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		return &ConfigurationError{Field: "upload.max_file_size_mb", Reason: "must be positive"}
	}

	if c.Minio.Enabled {
		if c.Minio.Endpoint == "" {
			return &ConfigurationError{Field: "minio.endpoint", Reason: "missing while minio is enabled"}
		}
		if c.Minio.Bucket == "" {
			return &ConfigurationError{Field: "minio.bucket", Reason: "missing while minio is enabled"}
		}
	}

	if c.Auth.JWTSecret == "" {
		return &ConfigurationError{Field: "auth.jwt_secret", Reason: "missing"}
	}
	for i, u := range c.Users {
		if u.Username == "" || u.Password == "" || u.Tenant == "" {
			return &ConfigurationError{
				Field:  fmt.Sprintf("users[%d]", i),
				Reason: "username, password and tenant are required",
			}
		}
	}

	return nil
}
