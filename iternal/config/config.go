// Package config loads run profiles from TOML files.
//
// A profile bundles the tag and class lists for a site together with the
// output options, so long rule sets do not have to be repeated on the
// command line:
//
//	output_dir = "output"
//	mode = "forward"
//	tags = ["script", "style", "nav"]
//	classes = ["related-posts"]
//	absolute_urls = true
//	strip_ref = true
//	browser_timeout = "90s"
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/pfczx/htmlfilter/iternal/filter"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	OutputDir      string   `toml:"output_dir"`
	Mode           string   `toml:"mode"`
	Tags           []string `toml:"tags"`
	Classes        []string `toml:"classes"`
	AbsoluteURLs   bool     `toml:"absolute_urls"`
	StripRef       bool     `toml:"strip_ref"`
	Parallel       bool     `toml:"parallel"`
	Browser        bool     `toml:"browser"`
	BrowserTimeout string   `toml:"browser_timeout"`
	UserAgent      string   `toml:"user_agent"`
	Database       string   `toml:"database"`
}

func Default() Config {
	return Config{
		OutputDir:      "output",
		Mode:           filter.Forward.String(),
		BrowserTimeout: "60s",
	}
}

// Load reads path over the defaults. An empty path yields the defaults; a
// path that cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := filter.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := time.ParseDuration(c.BrowserTimeout); err != nil {
		return fmt.Errorf("%w: browser_timeout: %v", ErrInvalidConfig, err)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is empty", ErrInvalidConfig)
	}
	return nil
}

func (c Config) FilterMode() filter.Mode {
	m, _ := filter.ParseMode(c.Mode)
	return m
}

// Timeout falls back to zero, which fetchers read as their own default.
func (c Config) Timeout() time.Duration {
	d, _ := time.ParseDuration(c.BrowserTimeout)
	return d
}

func (c Config) Spec() filter.Spec {
	return filter.Spec{Tags: c.Tags, Classes: c.Classes}
}
