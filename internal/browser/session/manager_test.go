package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielholmes839/loginsuite/internal/browser"
)

// The fakes embed the playwright interfaces and override only what the
// manager calls; anything else panics on the nil embedded value.

type fakePage struct {
	playwright.Page
	closed  int
	visited []string

	locators  map[string]*fakeLocator
	onConsole func(playwright.ConsoleMessage)
}

func (p *fakePage) OnConsole(fn func(playwright.ConsoleMessage)) { p.onConsole = fn }

// Locator resolves the selectors registered in locators; anything else
// matches nothing.
func (p *fakePage) Locator(selector string, _ ...playwright.PageLocatorOptions) playwright.Locator {
	if l, ok := p.locators[selector]; ok {
		return l
	}
	return &fakeLocator{}
}

// pwLocator aliases playwright.Locator so the embedded field is not named
// Locator, which would shadow the interface's promoted Locator method.
type pwLocator = playwright.Locator

type fakeLocator struct {
	pwLocator
	count   int
	visible bool
	enabled bool
	text    string
	err     error
	calls   []string
}

func (l *fakeLocator) Count() (int, error)       { return l.count, nil }
func (l *fakeLocator) First() playwright.Locator { return l }
func (l *fakeLocator) record(call string)        { l.calls = append(l.calls, call) }

func (l *fakeLocator) IsVisible(...playwright.LocatorIsVisibleOptions) (bool, error) {
	return l.visible, l.err
}

func (l *fakeLocator) IsEnabled(...playwright.LocatorIsEnabledOptions) (bool, error) {
	return l.enabled, l.err
}

func (l *fakeLocator) InnerText(...playwright.LocatorInnerTextOptions) (string, error) {
	return l.text, l.err
}

func (l *fakeLocator) Clear(...playwright.LocatorClearOptions) error {
	l.record("clear")
	return l.err
}

func (l *fakeLocator) Fill(value string, _ ...playwright.LocatorFillOptions) error {
	l.record("fill " + value)
	return l.err
}

func (l *fakeLocator) Click(...playwright.LocatorClickOptions) error {
	l.record("click")
	return l.err
}

type fakeConsoleMessage struct {
	playwright.ConsoleMessage
	level, text string
}

func (m fakeConsoleMessage) Type() string { return m.level }
func (m fakeConsoleMessage) Text() string { return m.text }

func (p *fakePage) Close(...playwright.PageCloseOptions) error {
	p.closed++
	return nil
}

func (p *fakePage) Goto(url string, _ ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.visited = append(p.visited, url)
	return nil, nil
}

func (p *fakePage) Title() (string, error) { return "OrangeHRM", nil }

type fakeContext struct {
	playwright.BrowserContext
	page       *fakePage
	pageErr    error
	timeout    float64
	navTimeout float64
	closed     int
}

func (c *fakeContext) SetDefaultTimeout(timeout float64)           { c.timeout = timeout }
func (c *fakeContext) SetDefaultNavigationTimeout(timeout float64) { c.navTimeout = timeout }

func (c *fakeContext) NewPage() (playwright.Page, error) {
	if c.pageErr != nil {
		return nil, c.pageErr
	}
	return c.page, nil
}

func (c *fakeContext) Close(...playwright.BrowserContextCloseOptions) error {
	c.closed++
	return nil
}

type fakeBrowser struct {
	playwright.Browser
	context     *fakeContext
	contextOpts []playwright.BrowserNewContextOptions
	closeErr    error
	closed      int
}

func (b *fakeBrowser) NewContext(opts ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	b.contextOpts = append(b.contextOpts, opts...)
	return b.context, nil
}

func (b *fakeBrowser) Close(...playwright.BrowserCloseOptions) error {
	b.closed++
	return b.closeErr
}

func (b *fakeBrowser) Version() string { return "131.0" }

type fakeBrowserType struct {
	playwright.BrowserType
	launchErr  error
	browsers   []*fakeBrowser
	launchOpts []playwright.BrowserTypeLaunchOptions
}

func (bt *fakeBrowserType) Launch(opts ...playwright.BrowserTypeLaunchOptions) (playwright.Browser, error) {
	bt.launchOpts = append(bt.launchOpts, opts...)
	if bt.launchErr != nil {
		return nil, bt.launchErr
	}
	b := &fakeBrowser{context: &fakeContext{page: &fakePage{}}}
	bt.browsers = append(bt.browsers, b)
	return b, nil
}

type fakeDriver struct {
	chromium *fakeBrowserType
	firefox  *fakeBrowserType
	started  int
	stopped  int
	startErr error
}

func installFakeDriver(t *testing.T) *fakeDriver {
	t.Helper()

	d := &fakeDriver{chromium: &fakeBrowserType{}, firefox: &fakeBrowserType{}}
	original := startDriver
	startDriver = func() (*playwright.Playwright, func() error, error) {
		if d.startErr != nil {
			return nil, nil, d.startErr
		}
		d.started++
		pw := &playwright.Playwright{Chromium: d.chromium, Firefox: d.firefox}
		return pw, func() error { d.stopped++; return nil }, nil
	}
	t.Cleanup(func() { startDriver = original })
	return d
}

func testConfig(kind Kind) Config {
	return Config{
		Kind:            kind,
		Headless:        true,
		ImplicitWait:    10 * time.Second,
		PageLoadTimeout: 30 * time.Second,
		DownloadDir:     "/results/downloads",
	}
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m, err := NewManager(cfg, nil)
	require.NoError(t, err)
	m.fs = afero.NewMemMapFs()
	return m
}

func TestNewManagerValidatesConfig(t *testing.T) {
	_, err := NewManager(Config{}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedBrowserKind)

	cfg := testConfig(Chrome)
	cfg.PageLoadTimeout = 0
	_, err = NewManager(cfg, nil)
	assert.Error(t, err)

	m, err := NewManager(testConfig(Chrome), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultWindowWidth, m.Config().WindowWidth)
	assert.Nil(t, m.Session())
}

func TestCreateAppliesConfiguration(t *testing.T) {
	d := installFakeDriver(t)
	m := newTestManager(t, testConfig(Chrome))

	s, err := m.Create()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Same(t, s, m.Session())
	assert.Equal(t, Chrome, s.Kind())
	assert.Equal(t, "131.0", s.Version())
	assert.NotEmpty(t, s.ID())

	require.Len(t, d.chromium.launchOpts, 1)
	launch := d.chromium.launchOpts[0]
	assert.True(t, *launch.Headless)
	assert.Contains(t, launch.Args, "--no-sandbox")
	assert.Contains(t, launch.Args, "--ignore-certificate-errors")
	assert.Contains(t, launch.Args, "--disable-blink-features=AutomationControlled")
	assert.Equal(t, []string{"--enable-automation"}, launch.IgnoreDefaultArgs)
	assert.Equal(t, "/results/downloads", *launch.DownloadsPath)
	assert.Nil(t, launch.Channel)

	b := d.chromium.browsers[0]
	require.Len(t, b.contextOpts, 1)
	assert.True(t, *b.contextOpts[0].IgnoreHttpsErrors)
	assert.True(t, *b.contextOpts[0].AcceptDownloads)
	assert.Equal(t, 1920, b.contextOpts[0].Viewport.Width)
	assert.Equal(t, float64(10000), b.context.timeout)
	assert.Equal(t, float64(30000), b.context.navTimeout)

	exists, err := afero.DirExists(m.fs, "/results/downloads")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateHeadfulMaximizes(t *testing.T) {
	d := installFakeDriver(t)
	cfg := testConfig(Edge)
	cfg.Headless = false
	m := newTestManager(t, cfg)

	_, err := m.Create()
	require.NoError(t, err)

	launch := d.chromium.launchOpts[0]
	assert.Equal(t, "msedge", *launch.Channel)
	assert.Contains(t, launch.Args, "--start-maximized")
	assert.NotContains(t, launch.Args, "--no-sandbox")
	assert.True(t, *d.chromium.browsers[0].contextOpts[0].NoViewport)
}

func TestCreateFirefox(t *testing.T) {
	d := installFakeDriver(t)
	m := newTestManager(t, testConfig(Firefox))

	_, err := m.Create()
	require.NoError(t, err)

	require.Empty(t, d.chromium.launchOpts)
	require.Len(t, d.firefox.launchOpts, 1)
	prefs := d.firefox.launchOpts[0].FirefoxUserPrefs
	assert.Equal(t, "/results/downloads", prefs["browser.download.dir"])
	assert.Equal(t, false, prefs["dom.webdriver.enabled"])
}

func TestCreateLaunchFailureReleasesDriver(t *testing.T) {
	d := installFakeDriver(t)
	cause := errors.New("executable doesn't exist")
	d.chromium.launchErr = cause
	m := newTestManager(t, testConfig(Chrome))

	s, err := m.Create()
	assert.Nil(t, s)
	assert.Nil(t, m.Session())

	var lerr *LaunchError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "launch browser", lerr.Stage)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, d.stopped, "the driver must not outlive a failed launch")
}

func TestCreateDriverFailure(t *testing.T) {
	d := installFakeDriver(t)
	d.startErr = errors.New("driver not installed")
	m := newTestManager(t, testConfig(Chrome))

	_, err := m.Create()
	var lerr *LaunchError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "start driver", lerr.Stage)
}

func TestQuitIsIdempotent(t *testing.T) {
	d := installFakeDriver(t)
	m := newTestManager(t, testConfig(Chrome))

	m.Quit() // never created

	s, err := m.Create()
	require.NoError(t, err)
	m.Quit()
	m.Quit()

	b := d.chromium.browsers[0]
	assert.Equal(t, 1, b.closed)
	assert.Equal(t, 1, b.context.closed)
	assert.Equal(t, 1, b.context.page.closed)
	assert.Equal(t, 1, d.stopped)
	assert.Nil(t, m.Session())

	assert.ErrorIs(t, s.Goto("https://example.com"), browser.ErrSessionClosed)
	_, err = s.Count(browser.Name("username"))
	assert.ErrorIs(t, err, browser.ErrSessionClosed)
}

func TestQuitSwallowsTeardownErrors(t *testing.T) {
	d := installFakeDriver(t)
	m := newTestManager(t, testConfig(Chrome))

	_, err := m.Create()
	require.NoError(t, err)
	d.chromium.browsers[0].closeErr = errors.New("browser has crashed")

	assert.NotPanics(t, m.Quit)
	assert.Equal(t, 1, d.stopped, "later teardown steps still run")
}

func TestRestart(t *testing.T) {
	d := installFakeDriver(t)
	m := newTestManager(t, testConfig(Chrome))

	first, err := m.Create()
	require.NoError(t, err)

	second, err := m.Restart()
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Same(t, second, m.Session())
	assert.Equal(t, 2, d.started)
	assert.Equal(t, 1, d.stopped)

	_, err = first.Title()
	assert.ErrorIs(t, err, browser.ErrSessionClosed)

	title, err := second.Title()
	require.NoError(t, err)
	assert.Equal(t, "OrangeHRM", title)
}

func TestSessionRejectsConcurrentCaller(t *testing.T) {
	installFakeDriver(t)
	m := newTestManager(t, testConfig(Chrome))

	s, err := m.Create()
	require.NoError(t, err)

	s.mu.Lock() // another call in flight
	err = s.Goto("https://example.com")
	s.mu.Unlock()
	assert.ErrorIs(t, err, browser.ErrSessionBusy)

	require.NoError(t, s.Goto("https://example.com"))
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"chrome", "Firefox", " EDGE "} {
		kind, err := ParseKind(name)
		require.NoError(t, err, name)
		assert.NotNil(t, kind)
	}

	_, err := ParseKind("safari")
	assert.ErrorIs(t, err, ErrUnsupportedBrowserKind)
}

func newTestSession(t *testing.T) (*Session, *fakePage) {
	t.Helper()
	d := installFakeDriver(t)
	m := newTestManager(t, testConfig(Chrome))

	s, err := m.Create()
	require.NoError(t, err)
	return s, d.chromium.browsers[0].context.page
}

func TestSessionQueries(t *testing.T) {
	s, page := newTestSession(t)
	username := &fakeLocator{count: 1, visible: true, enabled: true, text: "  Admin \n"}
	page.locators = map[string]*fakeLocator{`css=[name="username"]`: username}

	n, err := s.Count(browser.Name("username"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	visible, err := s.IsVisible(browser.Name("username"))
	require.NoError(t, err)
	assert.True(t, visible)

	enabled, err := s.IsEnabled(browser.Name("username"))
	require.NoError(t, err)
	assert.True(t, enabled)

	text, err := s.Text(browser.Name("username"))
	require.NoError(t, err)
	assert.Equal(t, "Admin", text)
}

func TestSessionActions(t *testing.T) {
	s, page := newTestSession(t)
	username := &fakeLocator{count: 1, visible: true, enabled: true}
	page.locators = map[string]*fakeLocator{`css=[name="username"]`: username}

	require.NoError(t, s.Fill(browser.Name("username"), "Admin"))
	require.NoError(t, s.Click(browser.Name("username")))
	assert.Equal(t, []string{"clear", "fill Admin", "click"}, username.calls)
}

func TestSessionMissingElementFailsFast(t *testing.T) {
	s, _ := newTestSession(t)
	missing := browser.CSS("div.oxd-alert")

	visible, err := s.IsVisible(missing)
	require.NoError(t, err)
	assert.False(t, visible)

	_, err = s.IsEnabled(missing)
	assert.ErrorIs(t, err, browser.ErrNoElement)
	_, err = s.Text(missing)
	assert.ErrorIs(t, err, browser.ErrNoElement)
	assert.ErrorIs(t, s.Fill(missing, "Admin"), browser.ErrNoElement)
	assert.ErrorIs(t, s.Click(missing), browser.ErrNoElement)

	_, err = s.Count(browser.CSS(""))
	assert.ErrorIs(t, err, browser.ErrInvalidLocator)
}

func TestSessionTranslatesDriverErrors(t *testing.T) {
	s, page := newTestSession(t)
	button := &fakeLocator{count: 1}
	page.locators = map[string]*fakeLocator{"css=button[type='submit']": button}
	loc := browser.CSS("button[type='submit']")

	button.err = fmt.Errorf("locator.click: %w", playwright.ErrTargetClosed)
	err := s.Click(loc)
	assert.ErrorIs(t, err, browser.ErrSessionClosed)
	assert.True(t, browser.IsFatal(err))

	button.err = fmt.Errorf("locator.click: %w", playwright.ErrTimeout)
	err = s.Click(loc)
	assert.ErrorIs(t, err, browser.ErrTimeout)
	assert.False(t, browser.IsFatal(err))

	button.err = errors.New("element is outside of the viewport")
	err = s.Fill(loc, "x")
	assert.EqualError(t, err, "element is outside of the viewport")
	assert.Equal(t, []string{"click", "click", "clear"}, button.calls)
}

func TestSessionRecordsConsole(t *testing.T) {
	s, page := newTestSession(t)
	require.NotNil(t, page.onConsole)

	page.onConsole(fakeConsoleMessage{level: "error", text: "Failed to load resource: 404"})
	page.onConsole(fakeConsoleMessage{level: "log", text: "app ready"})

	logs := s.ConsoleLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, "error", logs[0].Level)
	assert.Equal(t, "Failed to load resource: 404", logs[0].Text)
	assert.False(t, logs[0].Time.IsZero())

	// the buffer outlives the session
	s.close()
	assert.Len(t, s.ConsoleLogs(), 2)
}

func TestSessionConsoleIsBounded(t *testing.T) {
	s := &Session{}
	for i := range maxConsoleEntries + 5 {
		s.recordConsole(fakeConsoleMessage{level: "log", text: fmt.Sprint(i)})
	}

	logs := s.ConsoleLogs()
	require.Len(t, logs, maxConsoleEntries)
	assert.Equal(t, "5", logs[0].Text)
}

func TestSessionInfo(t *testing.T) {
	s, _ := newTestSession(t)

	info := s.Info()
	assert.Equal(t, "chrome", info.Name)
	assert.Equal(t, "131.0", info.Version)
	assert.True(t, info.Headless)
	assert.NotEmpty(t, info.Platform)
}
