// Package config provides YAML configuration parsing for the showwatch CLI.
//
// Example configuration:
//
//	stop_threshold: 120s
//	retry_budget: 20
//	roster: appdata/cinemas.csv
//	result_dir: result
//
//	adapter: http
//	base_url: https://upstream.example.com
//	fetch_timeout: 20s
//	rate_limit: 1s
//	max_concurrency: 4
//
//	postgres:
//	  dsn: ${PG_DSN}
//	  schema: public
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by [Parse].
const (
	defaultRetryBudget    = 20
	defaultResultDir      = "result"
	defaultAdapter        = "mock"
	defaultFetchTimeout   = 20 * time.Second
	defaultRateLimit      = time.Second
	defaultMaxConcurrency = 4
)

// Config is the root configuration structure for showwatch.
//
// It maps directly to the YAML configuration file. Use [Load] or [Parse]
// to create one.
type Config struct {
	// StopThreshold is how long before a show's start instant polling for
	// that show ceases. May be omitted when the CLI supplies it as a flag.
	StopThreshold Duration `yaml:"stop_threshold"`

	// RetryBudget is the per-venue consecutive fetch-failure budget.
	// Defaults to 20.
	RetryBudget int `yaml:"retry_budget"`

	// Roster is the path to the venue roster file. Required.
	Roster string `yaml:"roster"`

	// ResultDir is the directory for the CSV result file. Defaults to
	// "result".
	ResultDir string `yaml:"result_dir"`

	// Adapter selects the schedule fetcher: "mock" or "http".
	// Defaults to "mock".
	Adapter string `yaml:"adapter"`

	// BaseURL is the upstream base URL. Required for the http adapter.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url"`

	// FetchTimeout is the per-request timeout. Defaults to 20s.
	FetchTimeout Duration `yaml:"fetch_timeout"`

	// RateLimit spaces fetch dispatches globally. Defaults to 1s.
	RateLimit Duration `yaml:"rate_limit"`

	// MaxConcurrency bounds concurrently processed venues. Defaults to 4.
	MaxConcurrency int `yaml:"max_concurrency"`

	// Date overrides the logical run date (YYYY-MM-DD). Defaults to today.
	Date string `yaml:"date"`

	// Postgres optionally mirrors terminal snapshots into Postgres.
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig configures the optional Postgres sink. A non-empty DSN
// enables it.
type PostgresConfig struct {
	// DSN is the connection string. Supports environment variable
	// substitution.
	DSN string `yaml:"dsn"`

	// Schema is the target schema. Defaults to "public".
	Schema string `yaml:"schema"`

	// Batch is the insert batch size. Defaults to 200.
	Batch int `yaml:"batch"`

	// ViaBouncer forces the simple protocol for PgBouncer transaction
	// pooling.
	ViaBouncer bool `yaml:"via_bouncer"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, expands environment variables,
// applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.RetryBudget == 0 {
		cfg.RetryBudget = defaultRetryBudget
	}
	if cfg.ResultDir == "" {
		cfg.ResultDir = defaultResultDir
	}
	if cfg.Adapter == "" {
		cfg.Adapter = defaultAdapter
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = Duration(defaultFetchTimeout)
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = Duration(defaultRateLimit)
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}
	if cfg.Postgres.Schema == "" {
		cfg.Postgres.Schema = "public"
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.StopThreshold.Duration() < 0 {
		return fmt.Errorf("stop_threshold cannot be negative, got %s", c.StopThreshold.Duration())
	}

	if c.RetryBudget < 1 {
		return fmt.Errorf("retry_budget must be at least 1, got %d", c.RetryBudget)
	}

	if c.Roster == "" {
		return fmt.Errorf("roster is required")
	}

	switch c.Adapter {
	case "mock", "http":
	default:
		return fmt.Errorf("adapter must be \"mock\" or \"http\", got %q", c.Adapter)
	}

	if c.BaseURL != "" {
		expanded, err := expandEnvVars(c.BaseURL)
		if err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
		c.BaseURL = expanded
	}

	if c.Adapter == "http" {
		if c.BaseURL == "" {
			return fmt.Errorf("base_url is required for the http adapter")
		}
		parsedURL, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("base_url scheme must be http or https, got %q", parsedURL.Scheme)
		}
	}

	if c.FetchTimeout.Duration() < time.Second {
		return fmt.Errorf("fetch_timeout must be at least 1s, got %s", c.FetchTimeout.Duration())
	}

	if c.RateLimit.Duration() < 0 {
		return fmt.Errorf("rate_limit cannot be negative, got %s", c.RateLimit.Duration())
	}

	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", c.MaxConcurrency)
	}

	if c.Date != "" {
		if _, err := time.Parse("2006-01-02", c.Date); err != nil {
			return fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", c.Date, err)
		}
	}

	if c.Postgres.DSN != "" {
		expanded, err := expandEnvVars(c.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("postgres.dsn: %w", err)
		}
		c.Postgres.DSN = expanded

		if c.Postgres.Batch < 0 {
			return fmt.Errorf("postgres.batch cannot be negative, got %d", c.Postgres.Batch)
		}
	}

	return nil
}
