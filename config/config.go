// Package config holds the runtime settings shared by the application modules.
package config

import (
	"errors"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            int
	DBPath          string
	DBDebug         bool
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RedisAddr       string
	RedisPassword   string
	ShutdownTimeout time.Duration
	NotifyBuffer    int
}

// Default returns the default configuration.
// In production, the JWT secret should be overridden.
func Default() Config {
	return Config{
		Port:            3000,
		DBPath:          "tasks.db",
		JWTSecret:       "change-me-in-production",
		JWTIssuer:       "task-management-system",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		ShutdownTimeout: 30 * time.Second,
		NotifyBuffer:    256,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, errors.New("port must be between 1 and 65535"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("jwt secret must be at least 16 characters"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.NotifyBuffer < 1 {
		errs = append(errs, errors.New("notify buffer must be at least 1"))
	}
	return errors.Join(errs...)
}
