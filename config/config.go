package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// CredentialPlaceholder is the value shipped in sample env files.
const CredentialPlaceholder = "YOUR_API_KEY_HERE"

// ErrMissingCredential is returned when no usable API key is configured.
var ErrMissingCredential = errors.New("API_KEY is not set")

// Config holds crawler configuration.
type Config struct {
	APIKey            string
	BaseURL           string
	ImageBaseURL      string
	Language          string
	Endpoints         []string
	MaxPages          int
	Delay             time.Duration
	Timeout           time.Duration
	MaxAttempts       int
	RetryDelay        time.Duration
	CastLimit         int
	DedupeInitialSize int
	OutputFile        string
	OutputFormat      string // csv, json, or dual
	MetricsAddr       string
	Verbose           bool
}

// DefaultConfig returns the defaults used for a full catalog run.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "https://api.themoviedb.org/3",
		ImageBaseURL: "https://image.tmdb.org/t/p/w500",
		Language:     "en",
		Endpoints: []string{
			"/movie/popular",
			"/movie/top_rated",
			"/movie/upcoming",
			"/movie/now_playing",
		},
		MaxPages:          30,
		Delay:             200 * time.Millisecond,
		Timeout:           15 * time.Second,
		MaxAttempts:       3,
		RetryDelay:        time.Second,
		CastLimit:         5,
		DedupeInitialSize: 1024,
		OutputFile:        "tmdb_movies_full.csv",
		OutputFormat:      "csv",
		MetricsAddr:       "",
		Verbose:           false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.ImageBaseURL == "" {
		return fmt.Errorf("image base URL cannot be empty")
	}
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("at least one listing endpoint is required")
	}
	for _, endpoint := range c.Endpoints {
		if !strings.HasPrefix(endpoint, "/") {
			return fmt.Errorf("endpoint %q must start with /", endpoint)
		}
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	if c.CastLimit < 0 {
		return fmt.Errorf("cast limit cannot be negative")
	}
	if c.DedupeInitialSize <= 0 {
		return fmt.Errorf("dedupe initial size must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}

	return nil
}

// CheckCredential reports whether an API key was actually provided.
func (c *Config) CheckCredential() error {
	key := strings.TrimSpace(c.APIKey)
	if key == "" || key == CredentialPlaceholder {
		return ErrMissingCredential
	}
	return nil
}

// APIKeyFromEnv reads the bearer token from API_KEY, the only variable
// consulted for the credential.
func APIKeyFromEnv() string {
	value, _ := EnvString("API_KEY")
	return value
}

// EnvString returns the trimmed value of an environment variable when set.
func EnvString(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses an integer environment variable when set.
func EnvInt(name string) (int, bool, error) {
	value, ok := EnvString(name)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return parsed, true, nil
}
