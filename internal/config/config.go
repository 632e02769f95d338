// Package config holds the settings of an upload run
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings passed to the reader, the browser and the form filler
type Config struct {
	BaseURL string

	// ExecPaths are browser binaries tried in order; empty means chromedp's own lookup.
	ExecPaths []string
	// RemoteURL connects to an already running browser instead of starting one.
	RemoteURL string

	NavTimeout          time.Duration
	FieldTimeout        time.Duration
	EditorTimeout       time.Duration
	AutocompleteTimeout time.Duration
	PollInterval        time.Duration

	SubmitRetries int
	SurnameFirst  bool // prefer "Last First" suggestions when both orderings are offered

	Login    string
	Password string
}

// Default returns the settings used when nothing is configured
func Default() *Config {
	return &Config{
		BaseURL:             "https://registr.ping-pong.cz",
		NavTimeout:          20 * time.Second,
		FieldTimeout:        5 * time.Second,
		EditorTimeout:       25 * time.Second,
		AutocompleteTimeout: 2 * time.Second,
		PollInterval:        200 * time.Millisecond,
		SubmitRetries:       3,
	}
}

// Load builds the configuration from defaults, the given .env files and STIS_* environment variables.
// Missing .env files are skipped; variables already set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("error loading %s: %w", f, err)
		}
		log.Printf("Loaded settings from %s", f)
	}

	cfg := Default()
	if v := os.Getenv("STIS_BASE_URL"); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("STIS_BROWSER_PATHS"); v != "" {
		for _, p := range strings.Split(v, string(os.PathListSeparator)) {
			if p = strings.TrimSpace(p); p != "" {
				cfg.ExecPaths = append(cfg.ExecPaths, p)
			}
		}
	}
	cfg.RemoteURL = os.Getenv("STIS_REMOTE_URL")
	cfg.Login = os.Getenv("STIS_LOGIN")
	cfg.Password = os.Getenv("STIS_PASSWORD")

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"STIS_NAV_TIMEOUT", &cfg.NavTimeout},
		{"STIS_FIELD_TIMEOUT", &cfg.FieldTimeout},
		{"STIS_EDITOR_TIMEOUT", &cfg.EditorTimeout},
		{"STIS_AUTOCOMPLETE_TIMEOUT", &cfg.AutocompleteTimeout},
		{"STIS_POLL_INTERVAL", &cfg.PollInterval},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.env, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %s", d.env, v)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("STIS_SUBMIT_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STIS_SUBMIT_RETRIES: %w", err)
		}
		if n < 1 || n > 10 {
			return nil, fmt.Errorf("STIS_SUBMIT_RETRIES must be between 1 and 10, got %d", n)
		}
		cfg.SubmitRetries = n
	}
	if v := os.Getenv("STIS_SURNAME_FIRST"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STIS_SURNAME_FIRST: %w", err)
		}
		cfg.SurnameFirst = b
	}
	return cfg, nil
}

// LoginURL is the registry's login page
func (c *Config) LoginURL() string {
	return c.BaseURL + "/htm/auth/login.php"
}

// TeamURL is the results page of the team with the given registry id
func (c *Config) TeamURL(id string) string {
	return c.BaseURL + "/htm/auth/klub/druzstva/vysledky/?druzstvo=" + id
}
