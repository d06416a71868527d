package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

var ErrUnsupportedBrowserKind = errors.New("unsupported browser kind")

// Kind is one of Chrome, Firefox or Edge. Each kind knows how to turn a
// Config into playwright launch and context options; the set is closed.
type Kind interface {
	String() string

	browserType(pw *playwright.Playwright) playwright.BrowserType
	launchOptions(cfg Config) playwright.BrowserTypeLaunchOptions
	contextOptions(cfg Config) playwright.BrowserNewContextOptions
}

var (
	Chrome  Kind = chromium{name: "chrome"}
	Edge    Kind = chromium{name: "edge", channel: "msedge"}
	Firefox Kind = firefox{}
)

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{Chrome, Firefox, Edge}
}

// ParseKind resolves a browser name, case-insensitively.
func ParseKind(name string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, kind := range Kinds() {
		if kind.String() == normalized {
			return kind, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedBrowserKind, name)
}

type chromium struct {
	name    string
	channel string
}

func (c chromium) String() string { return c.name }

func (c chromium) browserType(pw *playwright.Playwright) playwright.BrowserType {
	return pw.Chromium
}

func (c chromium) launchOptions(cfg Config) playwright.BrowserTypeLaunchOptions {
	args := []string{
		"--disable-gpu",
		"--disable-extensions",
		"--disable-plugins",
		"--disable-web-security",
		"--allow-running-insecure-content",
		"--ignore-certificate-errors",
		"--ignore-ssl-errors",
		"--ignore-certificate-errors-spki-list",
		"--disable-blink-features=AutomationControlled",
		fmt.Sprintf("--window-size=%d,%d", cfg.WindowWidth, cfg.WindowHeight),
	}

	if cfg.Headless {
		args = append(args, "--no-sandbox", "--disable-dev-shm-usage")
	} else {
		args = append(args, "--start-maximized")
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless:          playwright.Bool(cfg.Headless),
		Args:              args,
		IgnoreDefaultArgs: []string{"--enable-automation"},
		DownloadsPath:     playwright.String(cfg.DownloadDir),
		Timeout:           playwright.Float(milliseconds(cfg.PageLoadTimeout)),
	}
	if c.channel != "" {
		opts.Channel = playwright.String(c.channel)
	}
	return opts
}

func (c chromium) contextOptions(cfg Config) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		AcceptDownloads:   playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
		BypassCSP:         playwright.Bool(true),
	}

	// a maximized headful window sizes the page; a fixed viewport would
	// override it
	if cfg.Headless {
		opts.Viewport = &playwright.Size{Width: cfg.WindowWidth, Height: cfg.WindowHeight}
	} else {
		opts.NoViewport = playwright.Bool(true)
	}
	return opts
}

type firefox struct{}

func (firefox) String() string { return "firefox" }

func (firefox) browserType(pw *playwright.Playwright) playwright.BrowserType {
	return pw.Firefox
}

func (firefox) launchOptions(cfg Config) playwright.BrowserTypeLaunchOptions {
	return playwright.BrowserTypeLaunchOptions{
		Headless:      playwright.Bool(cfg.Headless),
		DownloadsPath: playwright.String(cfg.DownloadDir),
		Timeout:       playwright.Float(milliseconds(cfg.PageLoadTimeout)),
		FirefoxUserPrefs: map[string]interface{}{
			"browser.download.folderList":                 2,
			"browser.download.dir":                        cfg.DownloadDir,
			"browser.download.useDownloadDir":             true,
			"browser.helperApps.neverAsk.saveToDisk":      "text/csv,application/pdf,application/vnd.ms-excel",
			"security.mixed_content.block_active_content": false,
			"dom.webdriver.enabled":                       false,
		},
	}
}

func (firefox) contextOptions(cfg Config) playwright.BrowserNewContextOptions {
	// firefox has no maximize switch, so headful runs get the full window size
	return playwright.BrowserNewContextOptions{
		AcceptDownloads:   playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
		Viewport:          &playwright.Size{Width: cfg.WindowWidth, Height: cfg.WindowHeight},
	}
}
