// Package config loads Friendify configuration from the environment, an
// optional .env file, and an optional config file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

var (
	// ErrMissingDatabaseURL is returned when the postgres store is selected without DATABASE_URL.
	ErrMissingDatabaseURL = errors.New("missing DATABASE_URL environment variable")

	// ErrUnknownStore is returned when STORE names an unsupported driver.
	ErrUnknownStore = errors.New("unknown STORE driver")
)

// SpotifyConfig holds the Spotify application credentials.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Configured reports whether all values needed for the OAuth flow are set.
func (s SpotifyConfig) Configured() bool {
	return s.ClientID != "" && s.ClientSecret != "" && s.RedirectURI != ""
}

// Config holds all application configuration.
type Config struct {
	Env      string
	Host     string
	Port     string
	LogLevel string

	Spotify SpotifyConfig

	Store          string
	DatabaseURL    string
	MigrateOnStart bool

	// FrontendURL is where the login callback redirects to.
	FrontendURL string
	CORSOrigins []string
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration. A .env file in the working directory is loaded
// first if present; CONFIG_FILE may point at a YAML/JSON/TOML file whose
// values are overridden by the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		Env:      v.GetString("APP_ENV"),
		Host:     v.GetString("HOST"),
		Port:     v.GetString("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Spotify: SpotifyConfig{
			ClientID:     v.GetString("SPOTIFY_ID"),
			ClientSecret: v.GetString("SPOTIFY_SECRET"),
			RedirectURI:  v.GetString("SPOTIFY_REDIRECT_URI"),
		},
		Store:          strings.ToLower(v.GetString("STORE")),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		MigrateOnStart: v.GetBool("MIGRATE_ON_START"),
		FrontendURL:    strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
	}
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{cfg.FrontendURL}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case StoreMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HOST", "127.0.0.1")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SPOTIFY_REDIRECT_URI", "http://127.0.0.1:8080/api/spotify/callback")
	v.SetDefault("STORE", StorePostgres)
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("FRONTEND_URL", "http://127.0.0.1:8080")
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}
