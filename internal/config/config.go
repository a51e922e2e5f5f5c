package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Discord
	WebhookURL    string
	NotifyMention string // Optional message content, e.g. "@here"

	// GitHub
	GitHubToken string

	// Profile selection
	ProfileName  string // Name of the active profile (default: test)
	ProfilesFile string // Optional YAML file with additional profiles

	// Environment label shown in notifications (default: profile name)
	EnvironmentLabel string

	// History database (empty disables history)
	DatabasePath string

	// HTTP
	RequestTimeout time.Duration

	profiles map[string]Profile
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		WebhookURL:       getEnv("DISCORD_WEBHOOK_URL", ""),
		NotifyMention:    getEnv("NOTIFY_MENTION", ""),
		GitHubToken:      getEnv("GITHUB_TOKEN", ""),
		ProfileName:      getEnv("MONITOR_ENV", DefaultProfile),
		ProfilesFile:     getEnv("PROFILES_FILE", ""),
		EnvironmentLabel: getEnv("ENVIRONMENT_LABEL", ""),
		DatabasePath:     getEnv("DATABASE_PATH", ""),
	}

	var err error
	cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: must be positive")
	}

	cfg.profiles = BuiltinProfiles()
	if cfg.ProfilesFile != "" {
		extra, err := LoadProfiles(cfg.ProfilesFile)
		if err != nil {
			return nil, fmt.Errorf("load PROFILES_FILE: %w", err)
		}
		for name, p := range extra {
			cfg.profiles[name] = p
		}
	}

	return cfg, nil
}

// Profiles returns a copy of the known profiles keyed by name.
func (c *Config) Profiles() map[string]Profile {
	src := c.profiles
	if src == nil {
		src = BuiltinProfiles()
	}
	out := make(map[string]Profile, len(src))
	for name, p := range src {
		out[name] = p
	}
	return out
}

// HasProfile reports whether name is a known profile.
func (c *Config) HasProfile(name string) bool {
	_, ok := c.Profiles()[name]
	return ok
}

// ActiveProfile resolves and validates the profile named by ProfileName.
func (c *Config) ActiveProfile() (Profile, error) {
	p, ok := c.Profiles()[c.ProfileName]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", c.ProfileName)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Environment returns the label shown in notifications.
func (c *Config) Environment() string {
	if c.EnvironmentLabel != "" {
		return c.EnvironmentLabel
	}
	return c.ProfileName
}

// WithProfile returns a copy of the configuration with a different active profile.
// The receiver is left untouched.
func (c *Config) WithProfile(name string) (*Config, error) {
	if !c.HasProfile(name) {
		return nil, fmt.Errorf("unknown profile %q", name)
	}
	cp := *c
	cp.ProfileName = name
	return &cp, nil
}

// Validate checks that the active profile is usable.
func (c *Config) Validate() error {
	_, err := c.ActiveProfile()
	return err
}

// ValidateForNotify checks configuration needed for sending notifications.
func (c *Config) ValidateForNotify() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.WebhookURL == "" {
		return fmt.Errorf("DISCORD_WEBHOOK_URL is required")
	}
	return nil
}

// ValidateForWatch checks all configuration needed for the polling loop.
func (c *Config) ValidateForWatch() error {
	return c.ValidateForNotify()
}

// ValidateForHistory checks configuration needed for the history database.
func (c *Config) ValidateForHistory() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required for history")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
