package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"github.com/spf13/afero"
)

// LaunchError means a session could not be started. Nothing it had started is
// left running.
type LaunchError struct {
	Kind  string
	Stage string
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s session: %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// startDriver starts the playwright driver process. Swapped out in tests.
var startDriver = func() (*playwright.Playwright, func() error, error) {
	pw, err := playwright.Run(&playwright.RunOptions{
		Stdout: io.Discard,
		Stderr: io.Discard,
	})
	if err != nil {
		return nil, nil, err
	}
	return pw, pw.Stop, nil
}

// Install fetches the playwright driver and the named browsers
// ("chromium", "firefox", "msedge"); all bundled browsers when none are named.
func Install(browsers ...string) error {
	err := playwright.Install(&playwright.RunOptions{
		Browsers: browsers,
		Verbose:  false,
	})
	if err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	return nil
}

// Manager owns at most one browser session at a time.
type Manager struct {
	cfg    Config
	fs     afero.Fs
	logger *slog.Logger

	mu      sync.Mutex
	session *Session
}

// NewManager checks cfg once; every session the manager creates uses it.
func NewManager(cfg Config, logger *slog.Logger) (*Manager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Manager{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		logger: logger.With("browser", cfg.Kind.String()),
	}, nil
}

func (m *Manager) Config() Config {
	return m.cfg
}

// Session returns the live session, or nil.
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Create launches a new session. A session the manager already holds is quit
// first, so any reference to it becomes unusable.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.quitLocked()
	return m.createLocked()
}

// Quit tears the session down. Failures are logged, never returned, so a
// teardown problem cannot hide the result of whatever ran before it. Quitting
// twice, or before Create, does nothing.
func (m *Manager) Quit() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.quitLocked()
}

// Restart quits the current session and creates a new one from the same config.
func (m *Manager) Restart() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("restarting browser session")
	m.quitLocked()
	return m.createLocked()
}

func (m *Manager) createLocked() (*Session, error) {
	kind := m.cfg.Kind
	startup := time.Now()
	m.logger.Info("creating browser session", "headless", m.cfg.Headless)

	fail := func(s *Session, stage string, err error) (*Session, error) {
		if s != nil {
			if cerr := s.close(); cerr != nil {
				m.logger.Warn("failed to release partially launched session", "stage", stage, "error", cerr)
			}
		}
		lerr := &LaunchError{Kind: kind.String(), Stage: stage, Err: err}
		m.logger.Error("failed to create browser session", "error", lerr)
		return nil, lerr
	}

	if err := m.fs.MkdirAll(m.cfg.DownloadDir, 0o755); err != nil {
		return fail(nil, "create download directory", err)
	}

	pw, stop, err := startDriver()
	if err != nil {
		return fail(nil, "start driver", err)
	}
	s := &Session{id: uuid.NewString(), kind: kind, headless: m.cfg.Headless, stopDriver: stop}

	browserType := kind.browserType(pw)
	if browserType == nil {
		return fail(s, "resolve browser", errors.New("driver has no browser for this kind"))
	}

	s.browser, err = browserType.Launch(kind.launchOptions(m.cfg))
	if err != nil {
		return fail(s, "launch browser", err)
	}

	s.context, err = s.browser.NewContext(kind.contextOptions(m.cfg))
	if err != nil {
		return fail(s, "create context", err)
	}
	s.context.SetDefaultTimeout(milliseconds(m.cfg.ImplicitWait))
	s.context.SetDefaultNavigationTimeout(milliseconds(m.cfg.PageLoadTimeout))

	s.page, err = s.context.NewPage()
	if err != nil {
		return fail(s, "open page", err)
	}
	s.page.OnConsole(s.recordConsole)

	m.session = s
	m.logger.Info("created browser session",
		"session", s.id,
		"version", s.Version(),
		"dur", time.Since(startup).String(),
	)
	return s, nil
}

func (m *Manager) quitLocked() {
	s := m.session
	if s == nil {
		return
	}
	m.session = nil

	m.logger.Info("quitting browser session", "session", s.id)
	if err := s.close(); err != nil {
		m.logger.Error("error quitting browser session", "session", s.id, "error", err)
		return
	}
	m.logger.Info("browser session quit", "session", s.id)
}
