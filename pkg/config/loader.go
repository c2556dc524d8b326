package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, CHATBRIDGE_CONFIG env, ./config.yaml, /etc/chatbridge/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. CHATBRIDGE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/chatbridge/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("CHATBRIDGE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/chatbridge/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps CHATBRIDGE_* environment variables to config
// fields. Env vars win over the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHATBRIDGE_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CHATBRIDGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CHATBRIDGE_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("CHATBRIDGE_TOKEN"); v != "" {
		cfg.Backend.Token = v
	}
	if v := os.Getenv("CHATBRIDGE_MODEL"); v != "" {
		cfg.Backend.Model = v
	}
	if v := os.Getenv("CHATBRIDGE_EMBEDDINGS_MODEL"); v != "" {
		cfg.Backend.EmbeddingsModel = v
	}
	if v := os.Getenv("CHATBRIDGE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Backend.Timeout = d
		}
	}
	if v, ok := envBool("CHATBRIDGE_PASS_MODEL"); ok {
		cfg.Backend.PassModel = v
	}
	if v, ok := envBool("CHATBRIDGE_PASS_TOKEN"); ok {
		cfg.Backend.PassToken = v
	}
	if v, ok := envBool("CHATBRIDGE_ENABLE_IMAGES"); ok {
		cfg.Attachments.EnableImages = v
	}
	if v := os.Getenv("CHATBRIDGE_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
}

func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return parsed, true
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. For each field ending in _file, if the value field is empty
// and the file field is set, the file is read, whitespace is trimmed, and
// the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// backend.token_file -> backend.token
	if cfg.Backend.TokenFile != "" && cfg.Backend.Token == "" {
		val, err := readSecretFile(cfg.Backend.TokenFile)
		if err != nil {
			return fmt.Errorf("backend.token_file: %w", err)
		}
		cfg.Backend.Token = val
	}

	// auth.secret_file -> auth.secret
	if cfg.Auth.SecretFile != "" && cfg.Auth.Secret == "" {
		val, err := readSecretFile(cfg.Auth.SecretFile)
		if err != nil {
			return fmt.Errorf("auth.secret_file: %w", err)
		}
		cfg.Auth.Secret = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
