package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".siteaudit.yml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .siteaudit.yml configuration file.
// Every field is optional; set fields override the built-in defaults and
// are in turn overridden by CLI flags.
type File struct {
	MaxDepth            *int     `yaml:"max_depth,omitempty"`
	MaxPages            *int     `yaml:"max_pages,omitempty"`
	Concurrency         *int     `yaml:"concurrency,omitempty"`
	RateLimit           *float64 `yaml:"rate_limit,omitempty"`
	RespectRobotsTxt    *bool    `yaml:"respect_robots_txt,omitempty"`
	FollowExternalLinks *bool    `yaml:"follow_external_links,omitempty"`
	MaxExternalLinks    *int     `yaml:"max_external_links,omitempty"`
	ExternalDepth       *int     `yaml:"external_depth,omitempty"`
	JSRendering         *string  `yaml:"js_rendering,omitempty"`
	TimeoutSeconds      *int     `yaml:"timeout_seconds,omitempty"`
	UserAgent           *string  `yaml:"user_agent,omitempty"`
	DBDir               *string  `yaml:"db_dir,omitempty"`
}

// LoadConfigFile loads crawl settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .siteaudit.yml in the current directory
// 3. Look for .siteaudit.yml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// Apply overlays the file's set fields onto the config.
// Unset (nil) fields leave the config untouched.
func (f *File) Apply(c *Config) {
	if f.MaxDepth != nil {
		c.MaxDepth = *f.MaxDepth
	}
	if f.MaxPages != nil {
		c.MaxPages = *f.MaxPages
	}
	if f.Concurrency != nil {
		c.Concurrency = *f.Concurrency
	}
	if f.RateLimit != nil {
		c.RateLimit = *f.RateLimit
	}
	if f.RespectRobotsTxt != nil {
		c.RespectRobotsTxt = *f.RespectRobotsTxt
	}
	if f.FollowExternalLinks != nil {
		c.FollowExternalLinks = *f.FollowExternalLinks
	}
	if f.MaxExternalLinks != nil {
		c.MaxExternalLinks = *f.MaxExternalLinks
	}
	if f.ExternalDepth != nil {
		c.ExternalDepth = *f.ExternalDepth
	}
	if f.JSRendering != nil {
		c.Render = RenderMode(*f.JSRendering)
	}
	if f.TimeoutSeconds != nil {
		c.Timeout = time.Duration(*f.TimeoutSeconds) * time.Second
	}
	if f.UserAgent != nil {
		c.UserAgent = *f.UserAgent
	}
	if f.DBDir != nil {
		c.DBDir = *f.DBDir
	}
}
