package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Client ClientConfig `yaml:"client"`
	Alerts AlertsConfig `yaml:"alerts"`
	Export ExportConfig `yaml:"export"`
	Mock   MockConfig   `yaml:"mock"`
}

type ClientConfig struct {
	URL               string        `yaml:"url"`
	Token             string        `yaml:"token"`
	HTTPBase          string        `yaml:"http_base"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	Locale            string        `yaml:"locale"`
}

type AlertsConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	Sound        bool          `yaml:"sound"`
	ToneHz       float64       `yaml:"tone_hz"`
	ToneDuration time.Duration `yaml:"tone_duration"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// MockConfig drives the development feed.
type MockConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	PushInterval  time.Duration `yaml:"push_interval"`
	AlertInterval time.Duration `yaml:"alert_interval"`
	Token         string        `yaml:"token"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			URL:               "ws://127.0.0.1:5050/ws",
			HeartbeatInterval: 30 * time.Second,
			Locale:            "zh-CN",
		},
		Alerts: AlertsConfig{
			Timeout:      5 * time.Second,
			Sound:        true,
			ToneHz:       800,
			ToneDuration: 500 * time.Millisecond,
		},
		Export: ExportConfig{
			Dir: "exports",
		},
		Mock: MockConfig{
			Host:          "127.0.0.1",
			Port:          5050,
			PushInterval:  60 * time.Second,
			AlertInterval: 20 * time.Second,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Client.URL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("client.url: %w", err))
	case u.Scheme != "ws" && u.Scheme != "wss":
		errs = append(errs, fmt.Errorf("client.url: scheme must be ws or wss, got %q", u.Scheme))
	case u.Host == "":
		errs = append(errs, errors.New("client.url: missing host"))
	}
	if c.Client.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("client.heartbeat_interval must be positive"))
	}
	if c.Alerts.Timeout <= 0 {
		errs = append(errs, errors.New("alerts.timeout must be positive"))
	}
	if c.Alerts.ToneHz <= 0 || c.Alerts.ToneDuration <= 0 {
		errs = append(errs, errors.New("alerts.tone_hz and alerts.tone_duration must be positive"))
	}
	if c.Mock.Port < 0 || c.Mock.Port > 65535 {
		errs = append(errs, fmt.Errorf("mock.port out of range: %d", c.Mock.Port))
	}
	if c.Mock.PushInterval <= 0 {
		errs = append(errs, errors.New("mock.push_interval must be positive"))
	}

	return errors.Join(errs...)
}

// HTTPBaseURL returns client.http_base, or derives it from the WebSocket
// URL: ws://host:port/ws becomes http://host:port.
func (c *Config) HTTPBaseURL() string {
	if c.Client.HTTPBase != "" {
		return strings.TrimRight(c.Client.HTTPBase, "/")
	}
	u, err := url.Parse(c.Client.URL)
	if err != nil || u.Host == "" {
		return "http://127.0.0.1:5050"
	}
	scheme := "http"
	if u.Scheme == "wss" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
