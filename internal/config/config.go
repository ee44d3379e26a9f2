package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abelbrown/hnfeed/internal/model"
)

// Config is the persistent application configuration
type Config struct {
	// Upstream APIs
	API APIConfig `json:"api"`

	// Feed controller behaviour
	Feed FeedConfig `json:"feed"`

	// UI Preferences
	UI UIConfig `json:"ui"`
}

// APIConfig holds the upstream endpoints and HTTP client settings.
type APIConfig struct {
	BaseURL              string   `json:"base_url"`   // Firebase item/index API
	SearchURL            string   `json:"search_url"` // Algolia search API
	Timeout              Duration `json:"timeout"`
	RequestsPerSecond    float64  `json:"requests_per_second"` // 0 = unlimited
	Burst                int      `json:"burst"`
	MaxConcurrentFetches int      `json:"max_concurrent_fetches"`
	UserAgent            string   `json:"user_agent"`
}

// FeedConfig holds the feed state machine settings.
type FeedConfig struct {
	DefaultType    model.FeedType `json:"default_type"`
	PageSize       int            `json:"page_size"`
	PollInterval   Duration       `json:"poll_interval"`
	ScrollThrottle Duration       `json:"scroll_throttle"`
	ErrorTimeout   Duration       `json:"error_timeout"`
	NearBottomRows int            `json:"near_bottom_rows"` // rows from the end that count as "near bottom"
}

// UIConfig holds UI preferences
type UIConfig struct {
	Theme      string `json:"theme"`
	ShowScores bool   `json:"show_scores"`
	AltScreen  bool   `json:"alt_screen"`
}

// Duration is a time.Duration stored as a string ("5s") in JSON.
type Duration time.Duration

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts "500ms" style strings or integer milliseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("duration must be a string or milliseconds: %s", b)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:              "https://hacker-news.firebaseio.com/v0",
			SearchURL:            "https://hn.algolia.com/api/v1",
			Timeout:              Duration(15 * time.Second),
			RequestsPerSecond:    20,
			Burst:                10,
			MaxConcurrentFetches: 10,
			UserAgent:            "hnfeed/0.3 (+https://github.com/abelbrown/hnfeed)",
		},
		Feed: FeedConfig{
			DefaultType:    model.FeedNew,
			PageSize:       10,
			PollInterval:   Duration(5 * time.Second),
			ScrollThrottle: Duration(500 * time.Millisecond),
			ErrorTimeout:   Duration(5 * time.Second),
			NearBottomRows: 3,
		},
		UI: UIConfig{
			Theme:      "dark",
			ShowScores: true,
			AltScreen:  true,
		},
	}
}

// DataDir returns ~/.hnfeed, or HNFEED_HOME when set.
func DataDir() string {
	if dir := os.Getenv("HNFEED_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hnfeed")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// EventLogPath returns the path to the JSONL event log.
func EventLogPath() string {
	return filepath.Join(DataDir(), "hnfeed.events.jsonl")
}

// Load reads config from ConfigPath, or returns defaults. Environment
// overrides are applied in both cases.
func Load() (*Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads config from path. A missing file yields the defaults.
// Fields absent from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.clamp()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to ConfigPath
func (c *Config) Save() error {
	return c.SaveFile(ConfigPath())
}

// SaveFile writes config to path, creating the directory if needed.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from HNFEED_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("HNFEED_API_BASE"); v != "" {
		c.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("HNFEED_SEARCH_BASE"); v != "" {
		c.API.SearchURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("HNFEED_FEED"); v != "" {
		t, err := model.ParseFeedType(v)
		if err != nil {
			return fmt.Errorf("HNFEED_FEED: %w", err)
		}
		c.Feed.DefaultType = t
	}
	if v := os.Getenv("HNFEED_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HNFEED_PAGE_SIZE: %w", err)
		}
		c.Feed.PageSize = n
	}
	if v := os.Getenv("HNFEED_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HNFEED_POLL_INTERVAL: %w", err)
		}
		c.Feed.PollInterval = Duration(d)
	}
	return nil
}

// Validate rejects settings the feed controller cannot run with. It never
// modifies c.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" || c.API.SearchURL == "" {
		return errors.New("config: api base_url and search_url are required")
	}
	if !c.Feed.DefaultType.Valid() {
		return fmt.Errorf("config: unknown default_type %q", c.Feed.DefaultType)
	}
	if c.Feed.PageSize < 1 {
		return fmt.Errorf("config: page_size must be positive, got %d", c.Feed.PageSize)
	}
	if c.Feed.PollInterval.D() <= 0 || c.Feed.ScrollThrottle.D() <= 0 || c.Feed.ErrorTimeout.D() <= 0 {
		return errors.New("config: poll_interval, scroll_throttle and error_timeout must be positive")
	}
	if c.API.MaxConcurrentFetches < 1 {
		return fmt.Errorf("config: max_concurrent_fetches must be positive, got %d", c.API.MaxConcurrentFetches)
	}
	if c.Feed.NearBottomRows < 0 {
		return fmt.Errorf("config: near_bottom_rows must not be negative, got %d", c.Feed.NearBottomRows)
	}
	return nil
}

// clamp pulls soft limits back into range after loading.
func (c *Config) clamp() {
	if c.API.MaxConcurrentFetches < 1 {
		c.API.MaxConcurrentFetches = 1
	}
	if c.Feed.NearBottomRows < 0 {
		c.Feed.NearBottomRows = 0
	}
}
