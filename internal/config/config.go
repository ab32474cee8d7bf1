package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/marcin-skalski/seat-monitor/internal/schedule"
	"gopkg.in/yaml.v3"
)

type Config struct {
	PollSchedule    schedule.Schedule `yaml:"-"`
	RawInterval     string            `yaml:"poll_interval"`
	PolitenessDelay time.Duration     `yaml:"-"`
	RawPoliteness   string            `yaml:"politeness_delay"`
	AlertMode       string            `yaml:"alert_mode"`
	LogFile         string            `yaml:"log_file"`
	Log             LogConfig         `yaml:"log"`
	Catalog         CatalogConfig     `yaml:"catalog"`
	Telegram        TelegramConfig    `yaml:"telegram"`
	TUI             TUIConfig         `yaml:"tui"`
	Subject         string            `yaml:"subject"`
	Term            string            `yaml:"term"`
	Courses         []CourseConfig    `yaml:"courses"`
	Watchlist       []WatchTarget     `yaml:"-"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type CatalogConfig struct {
	BaseURL    string        `yaml:"base_url"`
	SearchPath string        `yaml:"search_path"`
	Timeout    time.Duration `yaml:"-"`
	RawTimeout string        `yaml:"timeout"`
}

type TelegramConfig struct {
	ChatID     string        `yaml:"chat_id"`
	APIURL     string        `yaml:"api_url"`
	TokenEnv   string        `yaml:"token_env"`
	Token      string        `yaml:"-"`
	Timeout    time.Duration `yaml:"-"`
	RawTimeout string        `yaml:"timeout"`
}

type TUIConfig struct {
	RefreshInterval time.Duration `yaml:"-"`
	RawInterval     string        `yaml:"refresh_interval"`
}

// CourseConfig is one watched course as written in YAML. Subject and Term
// fall back to the top-level values.
type CourseConfig struct {
	Subject       string   `yaml:"subject"`
	Term          string   `yaml:"term"`
	CatalogNumber string   `yaml:"catalog_number"`
	Sections      []string `yaml:"sections"`
}

// WatchTarget identifies one course to monitor and the sections that matter.
type WatchTarget struct {
	Subject       string
	CatalogNumber string
	Term          string
	Sections      []string
}

func (w WatchTarget) Key() string {
	return w.Subject + " " + w.CatalogNumber
}

func (w WatchTarget) Watches(sectionID string) bool {
	for _, s := range w.Sections {
		if s == sectionID {
			return true
		}
	}
	return false
}

const (
	AlertEvery      = "every"
	AlertTransition = "transition"
)

// Load reads path (empty means built-in defaults only), loads .env into the
// environment without overriding existing variables and resolves the bot
// token.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	cfg.Telegram.Token = strings.TrimSpace(os.Getenv(cfg.Telegram.TokenEnv))
	cfg.Watchlist = cfg.buildWatchlist()

	return &cfg, nil
}

func (c *Config) setDefaults() error {
	if c.RawInterval == "" {
		c.RawInterval = "120s"
	}
	sched, err := schedule.Parse(c.RawInterval)
	if err != nil {
		return fmt.Errorf("parse poll_interval %q: %w", c.RawInterval, err)
	}
	c.PollSchedule = sched

	if c.RawPoliteness == "" {
		c.RawPoliteness = "2s"
	}
	d, err := time.ParseDuration(c.RawPoliteness)
	if err != nil {
		return fmt.Errorf("parse politeness_delay %q: %w", c.RawPoliteness, err)
	}
	if d < 0 {
		return fmt.Errorf("politeness_delay must not be negative, got %s", c.RawPoliteness)
	}
	c.PolitenessDelay = d

	if c.AlertMode == "" {
		c.AlertMode = AlertEvery
	}
	if c.LogFile == "" {
		c.LogFile = "/tmp/seat-monitor/logs/seat-monitor.log"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = "https://eadvs-cscc-catalog-api.apps.asu.edu"
	}
	if c.Catalog.SearchPath == "" {
		c.Catalog.SearchPath = "/catalog-microservices/api/v1/search/classes"
	}
	if c.Catalog.Timeout, err = parsePositive("catalog.timeout", &c.Catalog.RawTimeout, "30s"); err != nil {
		return err
	}

	if c.Telegram.ChatID == "" {
		c.Telegram.ChatID = "8446431956"
	}
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = "https://api.telegram.org"
	}
	if c.Telegram.TokenEnv == "" {
		c.Telegram.TokenEnv = "TELEGRAM_BOT_TOKEN"
	}
	if c.Telegram.Timeout, err = parsePositive("telegram.timeout", &c.Telegram.RawTimeout, "10s"); err != nil {
		return err
	}

	if c.TUI.RefreshInterval, err = parsePositive("tui.refresh_interval", &c.TUI.RawInterval, "1s"); err != nil {
		return err
	}

	if c.Subject == "" && c.Term == "" && len(c.Courses) == 0 {
		c.Subject = "CSE"
		c.Term = "2261"
		c.Courses = []CourseConfig{
			{CatalogNumber: "572", Sections: []string{"22907"}},
			{CatalogNumber: "573", Sections: []string{"37582"}},
			{CatalogNumber: "578", Sections: []string{"27108"}},
		}
	}
	for i := range c.Courses {
		if c.Courses[i].Subject == "" {
			c.Courses[i].Subject = c.Subject
		}
		if c.Courses[i].Term == "" {
			c.Courses[i].Term = c.Term
		}
	}

	return nil
}

func parsePositive(name string, raw *string, def string) (time.Duration, error) {
	if *raw == "" {
		*raw = def
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, *raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, *raw)
	}
	return d, nil
}

func (c *Config) validate() error {
	if len(c.Courses) == 0 {
		return fmt.Errorf("no courses configured")
	}
	for i, cr := range c.Courses {
		if cr.CatalogNumber == "" {
			return fmt.Errorf("courses[%d]: catalog_number required", i)
		}
		if cr.Subject == "" {
			return fmt.Errorf("courses[%d]: subject required", i)
		}
		if cr.Term == "" {
			return fmt.Errorf("courses[%d]: term required", i)
		}
		if len(cr.Sections) == 0 {
			return fmt.Errorf("courses[%d]: at least one section required", i)
		}
	}
	switch c.AlertMode {
	case AlertEvery, AlertTransition:
	default:
		return fmt.Errorf("invalid alert_mode %q (every|transition)", c.AlertMode)
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id required")
	}
	return nil
}

func (c *Config) buildWatchlist() []WatchTarget {
	targets := make([]WatchTarget, 0, len(c.Courses))
	for _, cr := range c.Courses {
		targets = append(targets, WatchTarget{
			Subject:       cr.Subject,
			CatalogNumber: cr.CatalogNumber,
			Term:          cr.Term,
			Sections:      append([]string(nil), cr.Sections...),
		})
	}
	return targets
}
