package session

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/multierr"

	"github.com/danielholmes839/loginsuite/internal/browser"
)

// Session is a live browser owned by a Manager. It implements browser.Page.
//
// A session serves one caller at a time: a call made while another is in
// flight fails with browser.ErrSessionBusy instead of interleaving commands,
// and every call after the owning Manager quit it fails with
// browser.ErrSessionClosed.
type Session struct {
	id       string
	kind     Kind
	headless bool

	browser    playwright.Browser
	context    playwright.BrowserContext
	page       playwright.Page
	stopDriver func() error

	mu     sync.Mutex
	closed atomic.Bool

	consoleMu sync.Mutex
	console   []browser.ConsoleEntry
}

// maxConsoleEntries bounds the console buffer; older entries are dropped first.
const maxConsoleEntries = 1000

var (
	_ browser.Page      = (*Session)(nil)
	_ browser.Describer = (*Session)(nil)
)

func (s *Session) ID() string { return s.id }
func (s *Session) Kind() Kind { return s.kind }

// Version is the version string the browser reports.
func (s *Session) Version() string {
	if s.browser == nil {
		return ""
	}
	return s.browser.Version()
}

// Info describes the browser. The platform is the host's, since playwright
// runs the browser locally.
func (s *Session) Info() browser.Info {
	return browser.Info{
		Name:     s.kind.String(),
		Version:  s.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		Headless: s.headless,
	}
}

// ConsoleLogs returns what the page has written to the console so far. It can
// be read after the session was quit.
func (s *Session) ConsoleLogs() []browser.ConsoleEntry {
	s.consoleMu.Lock()
	defer s.consoleMu.Unlock()

	logs := make([]browser.ConsoleEntry, len(s.console))
	copy(logs, s.console)
	return logs
}

// recordConsole is called from playwright's event goroutine.
func (s *Session) recordConsole(msg playwright.ConsoleMessage) {
	entry := browser.ConsoleEntry{Level: msg.Type(), Text: msg.Text(), Time: time.Now()}

	s.consoleMu.Lock()
	defer s.consoleMu.Unlock()

	if len(s.console) == maxConsoleEntries {
		s.console = s.console[1:]
	}
	s.console = append(s.console, entry)
}

func (s *Session) Goto(url string) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	_, err = s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	return translate(err)
}

func (s *Session) Count(loc browser.Locator) (int, error) {
	release, err := s.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	l, err := s.locate(loc)
	if err != nil {
		return 0, err
	}
	n, err := l.Count()
	return n, translate(err)
}

func (s *Session) IsVisible(loc browser.Locator) (bool, error) {
	release, err := s.acquire()
	if err != nil {
		return false, err
	}
	defer release()

	l, err := s.locate(loc)
	if err != nil {
		return false, err
	}
	visible, err := l.First().IsVisible()
	return visible, translate(err)
}

func (s *Session) IsEnabled(loc browser.Locator) (bool, error) {
	release, err := s.acquire()
	if err != nil {
		return false, err
	}
	defer release()

	l, err := s.present(loc)
	if err != nil {
		return false, err
	}
	enabled, err := l.IsEnabled()
	return enabled, translate(err)
}

func (s *Session) Text(loc browser.Locator) (string, error) {
	release, err := s.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	l, err := s.present(loc)
	if err != nil {
		return "", err
	}
	text, err := l.InnerText()
	return strings.TrimSpace(text), translate(err)
}

func (s *Session) Fill(loc browser.Locator, value string) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	l, err := s.present(loc)
	if err != nil {
		return err
	}
	if err := l.Clear(); err != nil {
		return translate(err)
	}
	return translate(l.Fill(value))
}

func (s *Session) Click(loc browser.Locator) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	l, err := s.present(loc)
	if err != nil {
		return err
	}
	return translate(l.Click())
}

func (s *Session) Title() (string, error) {
	release, err := s.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	title, err := s.page.Title()
	return title, translate(err)
}

func (s *Session) Content() (string, error) {
	release, err := s.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	content, err := s.page.Content()
	return content, translate(err)
}

func (s *Session) Screenshot() ([]byte, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	png, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Type:     playwright.ScreenshotTypePng,
		FullPage: playwright.Bool(true),
	})
	return png, translate(err)
}

func (s *Session) acquire() (func(), error) {
	if s.closed.Load() {
		return nil, browser.ErrSessionClosed
	}
	if !s.mu.TryLock() {
		return nil, browser.ErrSessionBusy
	}
	// quit may have won the race for the lock
	if s.closed.Load() {
		s.mu.Unlock()
		return nil, browser.ErrSessionClosed
	}
	return s.mu.Unlock, nil
}

func (s *Session) locate(loc browser.Locator) (playwright.Locator, error) {
	selector, err := loc.Selector()
	if err != nil {
		return nil, err
	}
	return s.page.Locator(selector), nil
}

// present resolves loc to its first element, failing fast when there is none
// so that callers never sit in playwright's own auto-wait.
func (s *Session) present(loc browser.Locator) (playwright.Locator, error) {
	l, err := s.locate(loc)
	if err != nil {
		return nil, err
	}

	n, err := l.Count()
	if err != nil {
		return nil, translate(err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNoElement, loc)
	}
	return l.First(), nil
}

// close releases page, context, browser and driver, in that order. It runs
// once; later calls return nil.
func (s *Session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	if s.page != nil {
		err = multierr.Append(err, ignoreClosed(s.page.Close()))
	}
	if s.context != nil {
		err = multierr.Append(err, ignoreClosed(s.context.Close()))
	}
	if s.browser != nil {
		err = multierr.Append(err, ignoreClosed(s.browser.Close()))
	}
	if s.stopDriver != nil {
		err = multierr.Append(err, s.stopDriver())
	}
	return err
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTargetClosed) {
		return fmt.Errorf("%w: %w", browser.ErrSessionClosed, err)
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %w", browser.ErrTimeout, err)
	}
	return err
}

// ignoreClosed drops the error from closing something the browser already tore down.
func ignoreClosed(err error) error {
	if errors.Is(err, playwright.ErrTargetClosed) {
		return nil
	}
	return err
}
