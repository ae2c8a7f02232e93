package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAppPort        = 3001
	DefaultRequestTimeout = 30 * time.Second
	DefaultCacheTTL       = 30 * time.Minute
	DefaultRateLimit      = 200
	DefaultRateWindow     = 10 * time.Minute
)

type Config struct {
	AppPort  int    `yaml:"-"`
	ProxyURL string `yaml:"-"`

	Engines        EnginesConfig `yaml:"engines"`
	UserAgent      string        `yaml:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	RateLimit      RateLimit     `yaml:"rate_limit"`
}

// EnginesConfig overrides upstream endpoints; empty values keep the built-in defaults.
type EnginesConfig struct {
	DuckDuckGoURL string `yaml:"duckduckgo_url"`
	GoogleURL     string `yaml:"google_url"`
	BraveURL      string `yaml:"brave_url"`
}

type RateLimit struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Load reads the environment and, when CONFIG_PATH is set, the YAML file it names.
// The listen port comes from APP_PORT, falling back to PORT.
func Load() (*Config, error) {
	cfg := &Config{
		AppPort:        DefaultAppPort,
		ProxyURL:       os.Getenv("PROXY_URL"),
		RequestTimeout: DefaultRequestTimeout,
		CacheTTL:       DefaultCacheTTL,
		RateLimit: RateLimit{
			Requests: DefaultRateLimit,
			Window:   DefaultRateWindow,
		},
	}

	for _, key := range []string{"APP_PORT", "PORT"} {
		port := os.Getenv(key)
		if port == "" {
			continue
		}
		appPort, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", key, port, err)
		}
		cfg.AppPort = appPort
		break
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = DefaultRateLimit
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = DefaultRateWindow
	}
	return nil
}

// BraveAPIKey is read on every call so the key can change without a restart.
// An unset key is not an error; Brave rejects the request instead.
func BraveAPIKey() string {
	return os.Getenv("BRAVE_API_KEY")
}
