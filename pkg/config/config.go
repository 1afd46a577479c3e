package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the aggregation pipeline
type Config struct {
	// Scrape provider settings
	Apify ApifyConfig `yaml:"apify" json:"apify"`

	// Language model settings
	Gemini GeminiConfig `yaml:"gemini" json:"gemini"`

	// Fetch stage settings
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Storage settings
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Regions maps a region name to its default scrape targets. Entries here
	// override or extend the built-in table.
	Regions map[string]RegionTargets `yaml:"regions" json:"regions"`
}

// ApifyConfig holds scrape-provider specific configuration
type ApifyConfig struct {
	ActorID           string        `yaml:"actor_id" json:"actor_id"`
	PollInterval      time.Duration `yaml:"poll_interval" json:"poll_interval"`
	RequestTimeout    time.Duration `yaml:"request_timeout" json:"request_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	UseProxy          bool          `yaml:"use_proxy" json:"use_proxy"`
}

// GeminiConfig holds language-model configuration
type GeminiConfig struct {
	Model           string        `yaml:"model" json:"model"`
	Temperature     float64       `yaml:"temperature" json:"temperature"`
	TopP            float64       `yaml:"top_p" json:"top_p"`
	TopK            int           `yaml:"top_k" json:"top_k"`
	MaxOutputTokens int           `yaml:"max_output_tokens" json:"max_output_tokens"`
	// RequestDelay is the blocking pause between classification calls,
	// sized for the provider's per-minute quota.
	RequestDelay  time.Duration `yaml:"request_delay" json:"request_delay"`
	ImageMaxBytes int64         `yaml:"image_max_bytes" json:"image_max_bytes"`
	ImageTimeout  time.Duration `yaml:"image_timeout" json:"image_timeout"`
}

// FetchConfig holds fetch-stage configuration
type FetchConfig struct {
	Region string `yaml:"region" json:"region"`
	// Targets, when set, bypasses the region table. Entries are hashtags
	// ("#torontojobs" or "torontojobs") or accounts ("@blogto").
	Targets           []string `yaml:"targets" json:"targets"`
	RecencyWindowDays int      `yaml:"recency_window_days" json:"recency_window_days"`
	MaxPosts          int      `yaml:"max_posts" json:"max_posts"`
	SkipDuplicates    bool     `yaml:"skip_duplicates" json:"skip_duplicates"`
}

// DatabaseConfig holds storage configuration. The connection string itself is
// a credential and resolved separately.
type DatabaseConfig struct {
	Table string `yaml:"table" json:"table"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Apify: ApifyConfig{
			ActorID:           "shu8hvrXbJbY3Eb9W", // apify/instagram-scraper
			PollInterval:      5 * time.Second,
			RequestTimeout:    30 * time.Second,
			RequestsPerMinute: 60,
			UseProxy:          true,
		},
		Gemini: GeminiConfig{
			Model:           "gemini-flash-latest",
			Temperature:     0.4,
			TopP:            1,
			TopK:            32,
			MaxOutputTokens: 8192,
			RequestDelay:    20 * time.Second,
			ImageMaxBytes:   5 * 1024 * 1024,
			ImageTimeout:    10 * time.Second,
		},
		Fetch: FetchConfig{
			Region:            "Toronto",
			RecencyWindowDays: 14,
			MaxPosts:          10,
			SkipDuplicates:    true,
		},
		Database: DatabaseConfig{
			Table: "posts",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
		Regions: DefaultRegions(),
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if region := os.Getenv("EXPATGRAM_REGION"); region != "" {
		c.Fetch.Region = region
	}
	if targets := os.Getenv("EXPATGRAM_TARGETS"); targets != "" {
		c.Fetch.Targets = splitAndTrim(targets)
	}
	if days := os.Getenv("EXPATGRAM_RECENCY_DAYS"); days != "" {
		if val, err := strconv.Atoi(days); err == nil && val > 0 {
			c.Fetch.RecencyWindowDays = val
		}
	}
	if limit := os.Getenv("EXPATGRAM_MAX_POSTS"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil && val > 0 {
			c.Fetch.MaxPosts = val
		}
	}
	if skip := os.Getenv("EXPATGRAM_SKIP_DUPLICATES"); skip != "" {
		c.Fetch.SkipDuplicates = strings.ToLower(skip) == "true"
	}
	if actor := os.Getenv("EXPATGRAM_APIFY_ACTOR_ID"); actor != "" {
		c.Apify.ActorID = actor
	}
	if model := os.Getenv("EXPATGRAM_GEMINI_MODEL"); model != "" {
		c.Gemini.Model = model
	}
	if delay := os.Getenv("EXPATGRAM_REQUEST_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d >= 0 {
			c.Gemini.RequestDelay = d
		}
	}
	if table := os.Getenv("EXPATGRAM_POSTS_TABLE"); table != "" {
		c.Database.Table = table
	}
	if logLevel := os.Getenv("EXPATGRAM_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".expatgram.yaml",
		".expatgram.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "expatgram", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "expatgram", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".expatgram.yaml"),
		filepath.Join(os.Getenv("HOME"), ".expatgram.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Apify.ActorID == "" {
		errs = append(errs, errors.New("apify actor ID is required"))
	}
	if c.Apify.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.Apify.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Gemini.Model == "" {
		errs = append(errs, errors.New("gemini model is required"))
	}
	if c.Gemini.RequestDelay < 0 {
		errs = append(errs, errors.New("request delay cannot be negative"))
	}
	if c.Gemini.ImageMaxBytes <= 0 {
		errs = append(errs, errors.New("image max bytes must be positive"))
	}
	if c.Gemini.ImageTimeout <= 0 {
		errs = append(errs, errors.New("image timeout must be positive"))
	}

	if c.Fetch.RecencyWindowDays <= 0 {
		errs = append(errs, errors.New("recency window days must be positive"))
	}
	if c.Fetch.MaxPosts <= 0 {
		errs = append(errs, errors.New("max posts must be positive"))
	}
	if len(c.Fetch.Targets) == 0 {
		if _, ok := c.Regions[c.Fetch.Region]; !ok {
			errs = append(errs, fmt.Errorf("unknown region %q and no explicit targets", c.Fetch.Region))
		}
	}

	if c.Database.Table == "" {
		errs = append(errs, errors.New("posts table name is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if region, ok := flags["region"].(string); ok && region != "" {
		c.Fetch.Region = region
	}
	if targets, ok := flags["targets"].([]string); ok && len(targets) > 0 {
		c.Fetch.Targets = targets
	}
	if days, ok := flags["days"].(int); ok && days > 0 {
		c.Fetch.RecencyWindowDays = days
	}
	if limit, ok := flags["limit"].(int); ok && limit > 0 {
		c.Fetch.MaxPosts = limit
	}
	if skip, ok := flags["skip-duplicates"].(bool); ok {
		c.Fetch.SkipDuplicates = skip
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".expatgram.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// A config file may replace the region table wholesale; make sure the
	// built-in regions stay available underneath user-defined ones.
	config.Regions = mergeRegions(DefaultRegions(), config.Regions)

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mergeRegions(base, overrides map[string]RegionTargets) map[string]RegionTargets {
	merged := make(map[string]RegionTargets, len(base)+len(overrides))
	for name, targets := range base {
		merged[name] = targets
	}
	for name, targets := range overrides {
		merged[name] = targets
	}
	return merged
}
