// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, workspaces) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Storage Drivers

const (
	// DriverPostgres stores documents and accounts in PostgreSQL and the local cache in Redis.
	DriverPostgres = "postgres"

	// DriverMemory keeps everything in process memory. Intended for development only.
	DriverMemory = "memory"
)

// # Configuration Schema

// Backend is the part of the configuration shared by every process that talks
// to the stores directly: the API server and the operator CLI.
type Backend struct {

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL"`

	// PublicBaseURL is used to build the links embedded in verification and reset emails.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// ProfileCollection names the profile documents.
	ProfileCollection string `env:"PROFILE_COLLECTION" envDefault:"users"`

	// EmailRatePerMinute throttles reset/verification emails per address.
	EmailRatePerMinute int `env:"EMAIL_RATE_PER_MINUTE" envDefault:"3"`
}

// Config holds all runtime configuration for the Gatekeeper server.
type Config struct {
	Backend

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// StorageDriver selects the backing collaborators ("postgres" or "memory").
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// SessionSecret signs the workspace cookie.
	SessionSecret string `env:"SESSION_SECRET,required"`

	// Profile documents
	ProfileCacheKey string `env:"PROFILE_CACHE_KEY" envDefault:"userProfile"`
	DefaultAvatar   string `env:"DEFAULT_AVATAR"    envDefault:"👤"`

	// AdminEmails seeds the administrator flag on sign-up for the listed addresses.
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	// WorkspaceIdleTTL is how long an unused browser workspace is kept in memory.
	WorkspaceIdleTTL time.Duration `env:"WORKSPACE_IDLE_TTL" envDefault:"24h"`

	// AllowAnonymous enables guest sessions. When false the provider answers operation-not-allowed.
	AllowAnonymous bool `env:"ALLOW_ANONYMOUS" envDefault:"true"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadBackend parses only the [Backend] variables. It does not require
// SESSION_SECRET, and the URLs may still be overridden by the caller.
func LoadBackend() (*Backend, error) {
	backend := &Backend{}
	if err := env.Parse(backend); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	return backend, nil
}

// RequireURLs fails when the PostgreSQL or Redis URL is empty.
func (b *Backend) RequireURLs() error {
	var missing []string
	if b.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if b.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks cross-field requirements that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory:
		return nil
	case DriverPostgres:
		return c.Backend.RequireURLs()
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the public base URL plus every EXTRA_ORIGINS entry.
func (c *Config) AllowedOrigins() []string {
	origins := []string{strings.TrimRight(c.PublicBaseURL, "/")}
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, strings.TrimRight(trimmed, "/"))
		}
	}
	return origins
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS (case-insensitive).
func (c *Config) IsAdminEmail(email string) bool {
	for _, candidate := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(candidate), email) {
			return true
		}
	}
	return false
}
