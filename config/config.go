package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"alexa-smart-home/internal/domain"
)

type Config struct {
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	Exposure      ExposureConfig      `yaml:"exposure"`
	HTTP          HTTPConfig          `yaml:"http"`
	Log           LogConfig           `yaml:"log"`
	Debug         bool                `yaml:"debug"`
}

type HomeAssistantConfig struct {
	URL       string `yaml:"url"`
	Token     string `yaml:"token"`
	SSLVerify bool   `yaml:"ssl_verify"`
	UserAgent string `yaml:"user_agent"`
}

type ExposureConfig struct {
	Domains         []string          `yaml:"domains"`
	EntitySuffixes  map[string]string `yaml:"entity_suffixes"`
	ExposeByDefault bool              `yaml:"expose_by_default"`
}

type HTTPConfig struct {
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
	RateLimit int    `yaml:"rate_limit"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse reads a YAML document, expanding ${VAR} references first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	// Booleans that default to true are set before decoding so an absent
	// key keeps the default.
	cfg := Config{
		HomeAssistant: HomeAssistantConfig{SSLVerify: true},
		Exposure:      ExposureConfig{ExposeByDefault: true},
	}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.HomeAssistant.URL == "" {
		c.HomeAssistant.URL = "http://localhost:8123/api"
	}
	if c.HomeAssistant.UserAgent == "" {
		c.HomeAssistant.UserAgent = "alexa-smart-home"
	}
	if len(c.Exposure.Domains) == 0 {
		for _, d := range domain.KnownDomains {
			c.Exposure.Domains = append(c.Exposure.Domains, string(d))
		}
	}
	if c.Exposure.EntitySuffixes == nil {
		c.Exposure.EntitySuffixes = map[string]string{
			string(domain.DomainGroup): "Group",
			string(domain.DomainScene): "Scene",
		}
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Debug {
		c.Log.Level = "debug"
	}
}

// Validate reports every configuration error at once.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.HomeAssistant.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("homeassistant.url %q must be an http(s) URL", c.HomeAssistant.URL))
	}
	if c.HomeAssistant.Token == "" {
		errs = append(errs, errors.New("homeassistant.token is required"))
	}

	for _, d := range c.Exposure.Domains {
		if !domain.IsKnownDomain(d) {
			errs = append(errs, fmt.Errorf("exposure.domains: unsupported domain %q", d))
		}
	}
	for d := range c.Exposure.EntitySuffixes {
		if !domain.IsKnownDomain(d) {
			errs = append(errs, fmt.Errorf("exposure.entity_suffixes: unsupported domain %q", d))
		}
	}

	if c.HTTP.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("http.rate_limit must not be negative, got %d", c.HTTP.RateLimit))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
