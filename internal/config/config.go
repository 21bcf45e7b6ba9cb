// Package config loads runner settings from UISCENARIO_* environment
// variables. Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/mstoykov/envconfig"
)

// Driver backends.
const (
	BackendStatic     = "static"
	BackendPlaywright = "playwright"
)

// DefaultBaseURL is the public demo site the bundled scenarios target.
const DefaultBaseURL = "https://the-internet.herokuapp.com"

// Config holds runner settings.
type Config struct {
	BaseURL        string        `json:"base_url" envconfig:"UISCENARIO_BASE_URL"`
	Backend        string        `json:"backend" envconfig:"UISCENARIO_BACKEND"`
	Headless       bool          `json:"headless" envconfig:"UISCENARIO_HEADLESS"`
	PollInterval   time.Duration `json:"poll_interval" envconfig:"UISCENARIO_POLL_INTERVAL"`
	Parallel       int           `json:"parallel" envconfig:"UISCENARIO_PARALLEL"`
	DBPath         string        `json:"db_path,omitempty" envconfig:"UISCENARIO_DB_PATH"`
	RequestTimeout time.Duration `json:"request_timeout" envconfig:"UISCENARIO_REQUEST_TIMEOUT"`
	BrowserTimeout time.Duration `json:"browser_timeout" envconfig:"UISCENARIO_BROWSER_TIMEOUT"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Backend:        BackendStatic,
		Headless:       true,
		PollInterval:   250 * time.Millisecond,
		Parallel:       1,
		RequestTimeout: 30 * time.Second,
		BrowserTimeout: 5 * time.Second,
	}
}

// Load reads the environment of the current process.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads variables through lookup, starting from Default. Unset
// variables keep their default.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if err := envconfig.Process("", &cfg, lookup); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendStatic, BackendPlaywright:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendStatic, BackendPlaywright)
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("base URL %q must be an absolute http(s) URL", c.BaseURL)
		}
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	if c.RequestTimeout < 0 || c.BrowserTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}
