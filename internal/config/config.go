// internal/config/config.go
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

// Defaults for the rangers console
const (
	DefaultAPIURL            = "http://localhost:3000"
	DefaultConsoleListenAddr = ":8080"
	DefaultPollInterval      = 30 * time.Second
	DefaultReconnectDelay    = 5 * time.Second
	DefaultAlertRefreshDelay = 1 * time.Second
	DefaultAlertCapacity     = 10
	DefaultReportLimit       = 20
	DefaultRequestTimeout    = 30 * time.Second
)

// Defaults for the demo API server
const (
	DefaultServerListenAddr = ":3000"
	DefaultDBPath           = "wildguard.db"
)

// ConsoleConfig for the rangers console
type ConsoleConfig struct {
	APIURL            string        `yaml:"api_url"`
	ListenAddr        string        `yaml:"listen_addr"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	AlertRefreshDelay time.Duration `yaml:"alert_refresh_delay"`
	AlertCapacity     int           `yaml:"alert_capacity"`
	ReportLimit       int           `yaml:"report_limit"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	LogLevel          string        `yaml:"log_level"`
}

// ServerConfig for the demo API server
type ServerConfig struct {
	ListenAddr    string        `yaml:"listen_addr"`
	DBPath        string        `yaml:"db_path"` // ":memory:" keeps nothing on disk
	AlertInterval time.Duration `yaml:"alert_interval"` // 0 disables the demo emitter
	LogLevel      string        `yaml:"log_level"`
}

// LoadConsoleConfig loads console config from a YAML file with env overrides.
// An empty path means defaults plus environment.
func LoadConsoleConfig(path string) (*ConsoleConfig, error) {
	var cfg ConsoleConfig
	if err := readYAML(path, &cfg); err != nil {
		return nil, err
	}

	// Env overrides
	if v := os.Getenv("WILDGUARD_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("WILDGUARD_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("WILDGUARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadServerConfig loads demo server config from a YAML file with env overrides
func LoadServerConfig(path string) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := readYAML(path, &cfg); err != nil {
		return nil, err
	}

	if v := os.Getenv("WILDGUARD_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("WILDGUARD_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("WILDGUARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readYAML(path string, out interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *ConsoleConfig) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.APIURL = strings.TrimSuffix(c.APIURL, "/")
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultConsoleListenAddr
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.AlertRefreshDelay == 0 {
		c.AlertRefreshDelay = DefaultAlertRefreshDelay
	}
	if c.AlertCapacity == 0 {
		c.AlertCapacity = DefaultAlertCapacity
	}
	if c.ReportLimit == 0 {
		c.ReportLimit = DefaultReportLimit
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the console configuration
func (c *ConsoleConfig) Validate() error {
	var errs []error

	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_url must be an absolute http(s) URL, got %q", c.APIURL))
	}
	if c.PollInterval < 0 || c.ReconnectDelay < 0 || c.AlertRefreshDelay < 0 || c.RequestTimeout < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.AlertCapacity < 1 {
		errs = append(errs, fmt.Errorf("alert_capacity must be positive, got %d", c.AlertCapacity))
	}
	if c.ReportLimit < 1 {
		errs = append(errs, fmt.Errorf("report_limit must be positive, got %d", c.ReportLimit))
	}
	if err := validateLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c *ServerConfig) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultServerListenAddr
	}
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the server configuration
func (c *ServerConfig) Validate() error {
	var errs []error
	if c.AlertInterval < 0 {
		errs = append(errs, errors.New("alert_interval must not be negative"))
	}
	if err := validateLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", level)
}
