// Package config loads poster defaults from YAML files and server settings
// from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/poster-splitter/internal/poster"
)

const (
	DefaultPort           = "8000"
	DefaultSecretKey      = "dev-secret-key"
	DefaultMaxUploadBytes = 32 << 20
)

// Load reads poster settings from a YAML file. Keys missing from the file
// keep their defaults; an empty path returns the defaults.
func Load(path string) (poster.Config, error) {
	cfg := poster.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg poster.Config) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Server holds the web interface settings. It is built once at startup and
// handed to the handlers explicitly.
type Server struct {
	Port           string
	SecretKey      string
	MaxUploadBytes int64

	// MaxPixels caps the decoded image and the poster canvas. Zero means
	// poster.DefaultMaxPixels.
	MaxPixels int64

	// Unread flash messages are dropped after FlashTTL, and at most
	// FlashLimit sessions are held. Zero means the store defaults.
	FlashTTL   time.Duration
	FlashLimit int
}

// ServerFromEnv reads PORT, SECRET_KEY, MAX_UPLOAD_MB, MAX_MEGAPIXELS,
// FLASH_TTL and FLASH_LIMIT, falling back to the defaults for unset or
// unparsable values.
func ServerFromEnv() Server {
	s := Server{
		Port:           DefaultPort,
		SecretKey:      DefaultSecretKey,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
	if port := os.Getenv("PORT"); port != "" {
		s.Port = port
	}
	if key := os.Getenv("SECRET_KEY"); key != "" {
		s.SecretKey = key
	}
	if mb, err := strconv.ParseInt(os.Getenv("MAX_UPLOAD_MB"), 10, 64); err == nil && mb > 0 {
		s.MaxUploadBytes = mb << 20
	}
	if mp, err := strconv.ParseInt(os.Getenv("MAX_MEGAPIXELS"), 10, 64); err == nil && mp > 0 {
		s.MaxPixels = mp * 1_000_000
	}
	if ttl, err := time.ParseDuration(os.Getenv("FLASH_TTL")); err == nil && ttl > 0 {
		s.FlashTTL = ttl
	}
	if n, err := strconv.Atoi(os.Getenv("FLASH_LIMIT")); err == nil && n > 0 {
		s.FlashLimit = n
	}
	return s
}
