package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/thoughtboard/internal/flagx"
	"github.com/dmitrijs2005/thoughtboard/internal/timex"
)

const (
	EnvServerURL = "THOUGHTBOARD_URL"
	EnvToken     = "THOUGHTBOARD_TOKEN"
)

// Config holds runtime settings for the CLI.
type Config struct {
	ServerURL string
	Token     string
	Timeout   time.Duration
}

// fileConfig is the JSON representation of Config. The token is never read
// from a file.
type fileConfig struct {
	ServerURL string         `json:"server_url"`
	Timeout   timex.Duration `json:"timeout"`
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.Timeout = 10 * time.Second
}

// Load builds a Config from defaults, the optional JSON file, the environment
// and args, in that order.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigFile(args); path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvServerURL)); v != "" {
		cfg.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		cfg.Token = v
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if fc.ServerURL != "" {
		cfg.ServerURL = fc.ServerURL
	}
	if fc.Timeout.Duration > 0 {
		cfg.Timeout = fc.Timeout.Duration
	}
	return nil
}

// parseFlags reads -a, -token and -timeout; other flags are left for the
// subcommands.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-token", "-timeout"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "server base URL")
	fs.StringVar(&cfg.Token, "token", cfg.Token, "access token")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")

	return fs.Parse(args)
}
