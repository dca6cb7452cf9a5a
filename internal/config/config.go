// Package config provides configuration loading and validation for the
// job board service. The board list, slug map, and sync interval that the
// system depends on are carried in an explicit Config passed to the sync
// engine and server at startup; nothing reads them ambiently.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Sync interval names accepted in config files.
const (
	IntervalHourly     = "hourly"
	IntervalTwiceDaily = "twicedaily"
	IntervalDaily      = "daily"
)

// SMTP holds mail delivery settings for application notifications.
type SMTP struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	From     string `json:"from"`
	// AdminEmail receives the operator-facing application summary.
	AdminEmail string `json:"admin_email"`
}

// Config is the full service configuration, loadable from a JSON file.
// DatabaseURL and RedisURL may instead come from the environment
// (DATABASE_URL, REDIS_URL); the CLI merges those in.
type Config struct {
	// Boards maps a board name to its Greenhouse API endpoint, e.g.
	// "octagon" -> "https://boards-api.greenhouse.io/v1/boards/octagon/jobs?content=true".
	Boards map[string]string `json:"boards"`

	// BoardSlugs maps a board name to the URL slug its jobs are linked
	// under by the front end. Defaults to "job" when absent. Passthrough
	// data for rendering clients; the API itself does not route on it.
	BoardSlugs map[string]string `json:"board_slugs,omitempty"`

	// SyncInterval is one of hourly, twicedaily, daily. Default daily.
	SyncInterval string `json:"sync_interval,omitempty"`

	DatabaseURL string `json:"database_url,omitempty"`
	RedisURL    string `json:"redis_url,omitempty"`

	// UploadDir is where stored resumes land. Default "uploads".
	UploadDir string `json:"upload_dir,omitempty"`

	// SiteName signs the applicant acknowledgment mail.
	SiteName string `json:"site_name,omitempty"`

	SMTP SMTP `json:"smtp"`
}

// Load reads and parses a JSON config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero-valued optional fields.
func (c *Config) ApplyDefaults() {
	if c.SyncInterval == "" {
		c.SyncInterval = IntervalDaily
	}
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.SiteName == "" {
		c.SiteName = "Octagon Careers"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if len(c.Boards) == 0 {
		return fmt.Errorf("config error: no boards configured")
	}
	for name, endpoint := range c.Boards {
		if name == "" {
			return fmt.Errorf("config error: board with empty name")
		}
		parsed, err := url.Parse(endpoint)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("config error: board %q has invalid endpoint %q", name, endpoint)
		}
	}

	switch c.SyncInterval {
	case IntervalHourly, IntervalTwiceDaily, IntervalDaily:
	default:
		return fmt.Errorf("config error: sync_interval must be one of hourly, twicedaily, daily; got %q", c.SyncInterval)
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: database_url is required")
	}

	return nil
}

// CronSpec returns the robfig/cron schedule spec for the configured
// sync interval.
func (c *Config) CronSpec() string {
	switch c.SyncInterval {
	case IntervalHourly:
		return "@every 1h"
	case IntervalTwiceDaily:
		return "@every 12h"
	default:
		return "@every 24h"
	}
}

// Slug returns the URL slug configured for a board, defaulting to "job".
func (c *Config) Slug(board string) string {
	if slug, ok := c.BoardSlugs[board]; ok && slug != "" {
		return slug
	}
	return "job"
}
