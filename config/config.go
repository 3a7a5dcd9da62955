// Package config loads the deployment settings of the formula tools.
//
// Settings come from, in increasing priority: defaults, an optional YAML
// file, a .env file in the working directory, and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/denysmiand/formula/suggest"
)

// ErrNoEndpoint is returned by Validate when no suggestion endpoint is set.
var ErrNoEndpoint = errors.New("config: FORMULA_SUGGEST_URL is not set")

// Environment variables read by Load.
const (
	EnvSuggestURL     = "FORMULA_SUGGEST_URL"
	EnvSuggestParam   = "FORMULA_SUGGEST_PARAM"
	EnvSuggestTimeout = "FORMULA_SUGGEST_TIMEOUT"
	EnvSuggestRate    = "FORMULA_SUGGEST_RPS"
	EnvSuggestBurst   = "FORMULA_SUGGEST_BURST"
	EnvPrecision      = "FORMULA_PRECISION"
	EnvMultipliers    = "FORMULA_MULTIPLIERS"
	EnvLogFile        = "FORMULA_LOG_FILE"
)

// Config holds the settings.
type Config struct {
	Suggest   Suggest `yaml:"suggest"`
	Precision uint    `yaml:"precision"`
	// Multipliers are the overlay factors offered for a selected tag.
	Multipliers []int64 `yaml:"multipliers"`
	// LogFile is where the interactive editor writes logs. Empty discards
	// them.
	LogFile string `yaml:"log_file"`
}

// Suggest holds the suggestion endpoint settings.
type Suggest struct {
	URL     string        `yaml:"url"`
	Param   string        `yaml:"param"`
	Timeout time.Duration `yaml:"timeout"`
	Rate    float64       `yaml:"rate"`
	Burst   int           `yaml:"burst"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Suggest: Suggest{
			Param:   "search",
			Timeout: 5 * time.Second,
			Rate:    5,
			Burst:   5,
		},
		Precision:   64,
		Multipliers: []int64{1, 3, 5},
	}
}

// Load reads settings. If path is not empty, the YAML file there must exist.
// A missing .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	if err := cfg.fromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) fromEnv() error {
	if v, ok := os.LookupEnv(EnvSuggestURL); ok {
		c.Suggest.URL = v
	}
	if v, ok := os.LookupEnv(EnvSuggestParam); ok && v != "" {
		c.Suggest.Param = v
	}
	if v, ok := os.LookupEnv(EnvSuggestTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError(EnvSuggestTimeout, err)
		}
		c.Suggest.Timeout = d
	}
	if v, ok := os.LookupEnv(EnvSuggestRate); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return envError(EnvSuggestRate, err)
		}
		c.Suggest.Rate = f
	}
	if v, ok := os.LookupEnv(EnvSuggestBurst); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(EnvSuggestBurst, err)
		}
		c.Suggest.Burst = n
	}
	if v, ok := os.LookupEnv(EnvPrecision); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return envError(EnvPrecision, err)
		}
		c.Precision = uint(n)
	}
	if v, ok := os.LookupEnv(EnvMultipliers); ok && v != "" {
		m, err := parseMultipliers(v)
		if err != nil {
			return envError(EnvMultipliers, err)
		}
		c.Multipliers = m
	}
	if v, ok := os.LookupEnv(EnvLogFile); ok {
		c.LogFile = v
	}
	return nil
}

func parseMultipliers(s string) ([]int64, error) {
	var r []int64
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, err
		}
		r = append(r, n)
	}
	return r, nil
}

func envError(name string, err error) error {
	return fmt.Errorf("config: invalid %s: %w", name, err)
}

// Validate checks that the settings are usable. A missing suggestion
// endpoint is ErrNoEndpoint.
func (c *Config) Validate() error {
	if c.Suggest.URL == "" {
		return ErrNoEndpoint
	}
	if c.Precision == 0 {
		return errors.New("config: precision must be positive")
	}
	if len(c.Multipliers) > 9 {
		return fmt.Errorf("config: at most 9 multipliers, have %d", len(c.Multipliers))
	}
	return nil
}

// SuggestConfig converts the endpoint settings for the suggest package.
func (c *Config) SuggestConfig() suggest.Config {
	return suggest.Config{
		Endpoint: c.Suggest.URL,
		Param:    c.Suggest.Param,
		Timeout:  c.Suggest.Timeout,
		Rate:     c.Suggest.Rate,
		Burst:    c.Suggest.Burst,
	}
}
