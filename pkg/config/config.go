// Package config provides unified configuration for the chatbridge gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (CHATBRIDGE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the chatbridge gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Backend       BackendConfig       `yaml:"backend"`
	Attachments   AttachmentsConfig   `yaml:"attachments"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`          // default: "" (all interfaces)
	Port         int           `yaml:"port"`          // default: 8090
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 10m, long enough for slow streams
	CORS         bool          `yaml:"cors"`          // default: true
}

// BackendConfig holds settings for the upstream LLM service.
type BackendConfig struct {
	BaseURL         string        `yaml:"base_url"` // required
	Token           string        `yaml:"token"`
	TokenFile       string        `yaml:"token_file"` // _file variant for token
	Timeout         time.Duration `yaml:"timeout"`    // default: 10m
	Model           string        `yaml:"model"`      // default model substituted for client models
	PassModel       bool          `yaml:"pass_model"` // forward the client's model name verbatim
	PassToken       bool          `yaml:"pass_token"` // forward the client's bearer token upstream
	EmbeddingsModel string        `yaml:"embeddings_model"`
}

// AttachmentsConfig holds attachment resolution settings.
type AttachmentsConfig struct {
	EnableImages  bool          `yaml:"enable_images"`   // default: true
	CacheSize     int           `yaml:"cache_size"`      // default: 1000
	CacheTTL      time.Duration `yaml:"cache_ttl"`       // default: 1h
	MaxAudioBytes int64         `yaml:"max_audio_bytes"` // 0 uses the built-in ceiling
	MaxImageBytes int64         `yaml:"max_image_bytes"`
	MaxTextBytes  int64         `yaml:"max_text_bytes"`
}

// AuthConfig holds the inbound shared-secret settings. An empty secret
// disables authentication.
type AuthConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8090,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
			CORS:         true,
		},
		Backend: BackendConfig{
			Timeout:         10 * time.Minute,
			EmbeddingsModel: "Embeddings",
		},
		Attachments: AttachmentsConfig{
			EnableImages: true,
			CacheSize:    1000,
			CacheTTL:     time.Hour,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
