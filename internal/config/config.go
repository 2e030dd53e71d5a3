package config

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jinzhu/configor"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"

	"github.com/tdh8316/statuscheck/internal/httpx"
)

const (
	DefaultFile    = "statuscheck.yml"
	DefaultEnvFile = ".env"
)

// Config is resolved once at startup and never mutated afterwards.
type Config struct {
	BaseURL   string `yaml:"base_url" env:"BASE_URL"`
	Cookie    string `yaml:"cookie" env:"COOKIE"`
	UserAgent string `yaml:"user_agent" env:"USER_AGENT" default:"statuscheck/0.1"`
	ProxyURL  string `yaml:"proxy_url" env:"PROXY_URL"`

	InputFile   string `yaml:"input_file" env:"INPUT_FILE" default:".data.txt"`
	OutputFile  string `yaml:"output_file" env:"OUTPUT_FILE" default:"results.txt"`
	CodePattern string `yaml:"code_pattern" env:"CODE_PATTERN"`

	// Durations in time.ParseDuration syntax. configor re-applies defaults
	// to zero values, so these stay strings to let "0s" mean zero.
	ConnectTimeout   string `yaml:"connect_timeout" env:"CONNECT_TIMEOUT" default:"10s"`
	Timeout          string `yaml:"timeout" env:"TIMEOUT" default:"15s"`
	RetryInterval    string `yaml:"retry_delay" env:"RETRY_DELAY" default:"1s"`
	ThrottleInterval string `yaml:"throttle" env:"THROTTLE" default:"1s"`

	// MaxRetries of 0 retries transient failures forever.
	MaxRetries  int `yaml:"max_retries" env:"MAX_RETRIES"`
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY" default:"1"`
}

// Load reads .env (if present), then the optional YAML file and the
// environment. Variables already set in the environment win over .env.
func Load(path string) (Config, error) {
	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return Config{}, err
	}

	var files []string
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
	}

	var cfg Config
	loader := configor.New(&configor.Config{Silent: true})
	if err := loader.Load(&cfg, files...); err != nil {
		return Config{}, errors.Wrap(err, "load configuration")
	}

	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Cookie = strings.TrimSpace(cfg.Cookie)
	if cfg.BaseURL == "" {
		return Config{}, errors.New("BASE_URL environment variable is missing; set it in .env")
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = httpx.DefaultUserAgent
	}

	return cfg, cfg.Validate()
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return errors.Wrapf(godotenv.Load(path), "read %s", path)
}

func (c Config) Validate() error {
	for _, d := range []struct{ name, value string }{
		{"CONNECT_TIMEOUT", c.ConnectTimeout},
		{"TIMEOUT", c.Timeout},
		{"RETRY_DELAY", c.RetryInterval},
		{"THROTTLE", c.ThrottleInterval},
	} {
		v, err := parseDuration(d.value)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", d.name)
		}
		if v < 0 {
			return errors.Errorf("invalid %s: must not be negative", d.name)
		}
	}

	switch {
	case c.MaxRetries < 0:
		return errors.New("max retries must not be negative")
	case c.Concurrency < 1:
		return errors.New("concurrency must be at least 1")
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Header builds the default header set sent with every request.
func (c Config) Header() (http.Header, error) {
	h := http.Header{}

	if c.Cookie != "" {
		if !httpguts.ValidHeaderFieldValue(c.Cookie) {
			return nil, errors.New("invalid COOKIE header value")
		}
		h.Set("Cookie", c.Cookie)
	}

	ua := c.UserAgent
	if ua == "" {
		ua = httpx.DefaultUserAgent
	}
	if !httpguts.ValidHeaderFieldValue(ua) {
		return nil, errors.New("invalid USER_AGENT header value")
	}
	h.Set("User-Agent", ua)

	return h, nil
}

func (c Config) ClientConfig() httpx.ClientConfig {
	connect, _ := parseDuration(c.ConnectTimeout)
	total, _ := parseDuration(c.Timeout)
	return httpx.ClientConfig{
		ConnectTimeout: connect,
		Timeout:        total,
		ProxyURL:       c.ProxyURL,
	}
}

func (c Config) RetryDelay() time.Duration {
	d, _ := parseDuration(c.RetryInterval)
	return d
}

func (c Config) Throttle() time.Duration {
	d, _ := parseDuration(c.ThrottleInterval)
	return d
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Cookie != "" {
		c.Cookie = "<redacted>"
	}
	return c
}
