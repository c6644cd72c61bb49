// Package config loads the agent configuration: YAML file first, .env and
// process environment on top, defaults for everything else.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SearchConfig drives what the portal adapters look for and how the scoring
// pass judges the results.
type SearchConfig struct {
	Keywords         []string `yaml:"keywords"`
	TitleVariantsDE  []string `yaml:"title_variants_de"`
	TitleVariantsEN  []string `yaml:"title_variants_en"`
	NegativeKeywords []string `yaml:"negative_keywords"`
	BlockedKeywords  []string `yaml:"blocked_keywords"`
	RequiredKeywords []string `yaml:"required_keywords"`
	Locations        []string `yaml:"locations"`
	MaxPages         int      `yaml:"max_pages" validate:"min=0"`
	PerSearchLimit   int      `yaml:"per_search_limit" validate:"min=0"`
	CommuteMap       string   `yaml:"commute_map"`
	RequestsPerSec   float64  `yaml:"requests_per_sec" validate:"min=0"`
	Headless         bool     `yaml:"headless"`
	Portals          []string `yaml:"portals"`
}

// StateConfig holds the reconciliation thresholds and file locations.
type StateConfig struct {
	StatePath        string `yaml:"state_path"`
	SeenPath         string `yaml:"seen_path"`
	TrackerPath      string `yaml:"tracker_path"`
	LockPath         string `yaml:"lock_path"`
	LockTTLMin       int    `yaml:"lock_ttl_min" validate:"min=0"`
	CachePath        string `yaml:"cache_path"`
	ExportDir        string `yaml:"export_dir"`
	MinScoreMail     int    `yaml:"min_score_mail"`
	MinScoreApply    int    `yaml:"min_score_apply"`
	ReminderDays     int    `yaml:"reminder_days" validate:"min=0"`
	DailyReminders   bool   `yaml:"daily_reminders"`
	CloseMissingRuns int    `yaml:"close_missing_runs" validate:"min=0"`
	CloseNotSeenDays int    `yaml:"close_not_seen_days" validate:"min=0"`
	// AggregatorSources are force-closed every run; their links rot fast.
	AggregatorSources []string `yaml:"aggregator_sources"`
}

type EmailConfig struct {
	Enabled    bool     `yaml:"enabled"`
	SMTPServer string   `yaml:"smtp_server" validate:"required_if=Enabled true"`
	SMTPPort   int      `yaml:"smtp_port" validate:"min=0,max=65535"`
	Sender     string   `yaml:"sender" validate:"omitempty,email"`
	Password   string   `yaml:"-"` // only via SENDER_PASSWORD, never from the file
	Recipients []string `yaml:"recipients"`
}

type WhatsAppConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"-"` // WHATSAPP_TOKEN
	PhoneID string `yaml:"phone_id"`
	To      string `yaml:"to"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"-"` // TELEGRAM_BOT_TOKEN
	ChatID  int64  `yaml:"chat_id"`
}

type Config struct {
	Search   SearchConfig   `yaml:"search"`
	State    StateConfig    `yaml:"state"`
	Email    EmailConfig    `yaml:"email"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Telegram TelegramConfig `yaml:"telegram"`
	Cookies  string         `yaml:"cookies_path"`
}

// Load reads the YAML config at path (missing file is fine, defaults apply),
// merges .env and environment overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Email.Password = os.Getenv("SENDER_PASSWORD")
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		c.Email.Sender = v
	}
	c.WhatsApp.Token = os.Getenv("WHATSAPP_TOKEN")
	if v := os.Getenv("WHATSAPP_PHONE_ID"); v != "" {
		c.WhatsApp.PhoneID = v
	}
	if v := os.Getenv("WHATSAPP_TO"); v != "" {
		c.WhatsApp.To = v
	}
	c.WhatsApp.Enabled = envBool("WHATSAPP_ENABLED", c.WhatsApp.Enabled)

	c.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}

	if v := os.Getenv("JOB_TRACKER_FILE"); v != "" {
		c.State.TrackerPath = v
	}
	if v := os.Getenv("RUN_LOCK_FILE"); v != "" {
		c.State.LockPath = v
	}
	c.State.LockTTLMin = envInt("RUN_LOCK_TTL_MIN", c.State.LockTTLMin)
	c.State.MinScoreMail = envInt("MIN_SCORE_MAIL", c.State.MinScoreMail)
	c.State.ReminderDays = envInt("REMINDER_DAYS", c.State.ReminderDays)
	c.State.CloseMissingRuns = envInt("CLOSE_MISSING_RUNS", c.State.CloseMissingRuns)
	c.State.CloseNotSeenDays = envInt("CLOSE_NOT_SEEN_DAYS", c.State.CloseNotSeenDays)
	c.State.DailyReminders = envBool("REMINDER_DAILY", c.State.DailyReminders)
}

func (c *Config) applyDefaults() {
	if c.State.StatePath == "" {
		c.State.StatePath = "generated/job_state.json"
	}
	if c.State.SeenPath == "" {
		c.State.SeenPath = "generated/seen_jobs.json"
	}
	if c.State.TrackerPath == "" {
		c.State.TrackerPath = "generated/job_tracker.xlsx"
	}
	if c.State.LockPath == "" {
		c.State.LockPath = "generated/run.lock"
	}
	if c.State.LockTTLMin == 0 {
		c.State.LockTTLMin = 120
	}
	if c.State.CachePath == "" {
		c.State.CachePath = "generated/empty_search_cache.json"
	}
	if c.State.ExportDir == "" {
		c.State.ExportDir = "generated/exports"
	}
	if c.State.MinScoreMail == 0 {
		c.State.MinScoreMail = 2
	}
	if c.State.MinScoreApply == 0 {
		c.State.MinScoreApply = 10
	}
	if c.State.ReminderDays == 0 {
		c.State.ReminderDays = 2
	}
	if c.State.CloseMissingRuns == 0 {
		c.State.CloseMissingRuns = 3
	}
	if c.State.CloseNotSeenDays == 0 {
		c.State.CloseNotSeenDays = 7
	}
	if len(c.State.AggregatorSources) == 0 {
		c.State.AggregatorSources = []string{"careerjet", "jobrapido", "jooble"}
	}
	if c.Search.MaxPages == 0 {
		c.Search.MaxPages = 3
	}
	if c.Search.PerSearchLimit == 0 {
		c.Search.PerSearchLimit = 30
	}
	if c.Search.RequestsPerSec == 0 {
		c.Search.RequestsPerSec = 0.5
	}
	if len(c.Search.Portals) == 0 {
		c.Search.Portals = []string{"jobs.ch", "jobup.ch"}
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Cookies == "" {
		c.Cookies = ".cookies"
	}
}

var truthy = map[string]bool{
	"1": true, "true": true, "t": true, "yes": true, "y": true, "ja": true, "j": true,
}

func envBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return truthy[strings.ToLower(strings.TrimSpace(raw))]
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}
