package session

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultWindowWidth  = 1920
	DefaultWindowHeight = 1080
)

// Config is the logical description of a session. It is passed by value and
// never changed once a Manager holds it.
type Config struct {
	Kind     Kind
	Headless bool

	// ImplicitWait bounds every driver action (fill, click) that waits on its own.
	ImplicitWait    time.Duration
	PageLoadTimeout time.Duration

	DownloadDir  string
	WindowWidth  int
	WindowHeight int
}

func (cfg Config) withDefaults() Config {
	if cfg.WindowWidth == 0 {
		cfg.WindowWidth = DefaultWindowWidth
	}
	if cfg.WindowHeight == 0 {
		cfg.WindowHeight = DefaultWindowHeight
	}
	return cfg
}

func (cfg Config) validate() error {
	if cfg.Kind == nil {
		return fmt.Errorf("%w: no browser kind configured", ErrUnsupportedBrowserKind)
	}
	if cfg.ImplicitWait <= 0 {
		return errors.New("implicit wait must be positive")
	}
	if cfg.PageLoadTimeout <= 0 {
		return errors.New("page load timeout must be positive")
	}
	if cfg.DownloadDir == "" {
		return errors.New("download directory is required")
	}
	return nil
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
