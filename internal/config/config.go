// Package config reads the suite's settings from the environment, an optional
// .env file and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/danielholmes839/loginsuite/internal/browser/session"
	"github.com/danielholmes839/loginsuite/internal/logging"
)

// Keys double as the environment variable names, lower cased.
const (
	KeyBaseURL          = "base_url"
	KeyBrowser          = "browser"
	KeyHeadless         = "headless"
	KeyImplicitWait     = "implicit_wait"
	KeyExplicitWait     = "explicit_wait"
	KeyPageLoadTimeout  = "page_load_timeout"
	KeyScreenshotDir    = "screenshot_dir"
	KeyDownloadDir      = "download_dir"
	KeyResultsDir       = "results_dir"
	KeyScreenshotMaxAge = "screenshot_max_age_days"
	KeyValidUsername    = "valid_username"
	KeyValidPassword    = "valid_password"
	KeyCredentialsFile  = "credentials_file"
	KeyLogLevel         = "log_level"
	KeyLogFile          = "log_file"
	KeyWebhookID        = "discord_webhook_id"
	KeyWebhookToken     = "discord_webhook_token"
)

var keys = []string{
	KeyBaseURL, KeyBrowser, KeyHeadless,
	KeyImplicitWait, KeyExplicitWait, KeyPageLoadTimeout,
	KeyScreenshotDir, KeyDownloadDir, KeyResultsDir, KeyScreenshotMaxAge,
	KeyValidUsername, KeyValidPassword, KeyCredentialsFile,
	KeyLogLevel, KeyLogFile,
	KeyWebhookID, KeyWebhookToken,
}

type Config struct {
	BaseURL  string
	Browser  string
	Headless bool

	ImplicitWait    time.Duration
	ExplicitWait    time.Duration
	PageLoadTimeout time.Duration

	ScreenshotDir    string
	DownloadDir      string
	ResultsDir       string
	ScreenshotMaxAge time.Duration

	ValidUsername   string
	ValidPassword   string
	CredentialsFile string

	LogLevel string
	LogFile  string

	DiscordWebhookID    string
	DiscordWebhookToken string
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, "https://opensource-demo.orangehrmlive.com/web/index.php/auth/login")
	v.SetDefault(KeyBrowser, "chrome")
	v.SetDefault(KeyHeadless, true)

	// seconds
	v.SetDefault(KeyImplicitWait, 10)
	v.SetDefault(KeyExplicitWait, 20)
	v.SetDefault(KeyPageLoadTimeout, 30)

	v.SetDefault(KeyScreenshotDir, "results/screenshots")
	v.SetDefault(KeyDownloadDir, "results/downloads")
	v.SetDefault(KeyResultsDir, "results")
	v.SetDefault(KeyScreenshotMaxAge, 7)

	v.SetDefault(KeyValidUsername, "Admin")
	v.SetDefault(KeyValidPassword, "admin123")
	v.SetDefault(KeyCredentialsFile, "")

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")

	v.SetDefault(KeyWebhookID, "")
	v.SetDefault(KeyWebhookToken, "")
}

// BindEnv binds every key to its upper case environment variable.
func BindEnv(v *viper.Viper) error {
	for _, key := range keys {
		if err := v.BindEnv(key, envName(key)); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// Load loads the given .env files (".env" when none are given) into the
// process environment without overriding variables that are already set,
// then builds the configuration from v. Missing .env files are skipped.
func Load(v *viper.Viper, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}
	return NewConfigFromViper(v)
}

// NewConfigFromViper reads and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		BaseURL:  v.GetString(KeyBaseURL),
		Browser:  v.GetString(KeyBrowser),
		Headless: v.GetBool(KeyHeadless),

		ImplicitWait:    seconds(v, KeyImplicitWait),
		ExplicitWait:    seconds(v, KeyExplicitWait),
		PageLoadTimeout: seconds(v, KeyPageLoadTimeout),

		ScreenshotDir:    v.GetString(KeyScreenshotDir),
		DownloadDir:      v.GetString(KeyDownloadDir),
		ResultsDir:       v.GetString(KeyResultsDir),
		ScreenshotMaxAge: time.Duration(v.GetInt(KeyScreenshotMaxAge)) * 24 * time.Hour,

		ValidUsername:   v.GetString(KeyValidUsername),
		ValidPassword:   v.GetString(KeyValidPassword),
		CredentialsFile: v.GetString(KeyCredentialsFile),

		LogLevel: v.GetString(KeyLogLevel),
		LogFile:  v.GetString(KeyLogFile),

		DiscordWebhookID:    v.GetString(KeyWebhookID),
		DiscordWebhookToken: v.GetString(KeyWebhookToken),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) url, got %q", envName(KeyBaseURL), c.BaseURL)
	}
	if _, err := session.ParseKind(c.Browser); err != nil {
		return fmt.Errorf("%s: %w", envName(KeyBrowser), err)
	}

	durations := map[string]time.Duration{
		KeyImplicitWait:    c.ImplicitWait,
		KeyExplicitWait:    c.ExplicitWait,
		KeyPageLoadTimeout: c.PageLoadTimeout,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive number of seconds", envName(key))
		}
	}
	if c.ScreenshotMaxAge < 0 {
		return fmt.Errorf("%s must not be negative", envName(KeyScreenshotMaxAge))
	}

	if c.ScreenshotDir == "" || c.ResultsDir == "" || c.DownloadDir == "" {
		return errors.New("screenshot, download and results directories are required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%s: %w", envName(KeyLogLevel), err)
	}
	if (c.DiscordWebhookID == "") != (c.DiscordWebhookToken == "") {
		return fmt.Errorf("%s and %s must be set together", envName(KeyWebhookID), envName(KeyWebhookToken))
	}
	return nil
}

// Kind is the configured browser.
func (c *Config) Kind() session.Kind {
	kind, err := session.ParseKind(c.Browser)
	if err != nil {
		// Validate rejects unknown browsers
		return session.Chrome
	}
	return kind
}

// Session is the session configuration for kind.
func (c *Config) Session(kind session.Kind) session.Config {
	return session.Config{
		Kind:            kind,
		Headless:        c.Headless,
		ImplicitWait:    c.ImplicitWait,
		PageLoadTimeout: c.PageLoadTimeout,
		DownloadDir:     c.DownloadDir,
	}
}

// NotifyEnabled reports whether a Discord webhook is configured.
func (c *Config) NotifyEnabled() bool {
	return c.DiscordWebhookID != "" && c.DiscordWebhookToken != ""
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetFloat64(key) * float64(time.Second))
}

func envName(key string) string {
	return strings.ToUpper(key)
}
