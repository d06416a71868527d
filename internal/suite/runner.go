// Package suite runs the login scenarios against fresh browser pages and
// collects their results into a run report.
package suite

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielholmes839/loginsuite/internal/artifacts"
	"github.com/danielholmes839/loginsuite/internal/browser"
	"github.com/danielholmes839/loginsuite/internal/browser/session"
	"github.com/danielholmes839/loginsuite/internal/credentials"
	"github.com/danielholmes839/loginsuite/internal/pages"
)

// Env is what the scenarios need to know about the application under test.
type Env struct {
	BaseURL      string
	Username     string
	Password     string
	ExplicitWait time.Duration

	// ExtraInvalid is tried after the built-in invalid credentials.
	ExtraInvalid []credentials.Credential

	// PollInterval overrides how often page objects poll; zero keeps their default.
	PollInterval time.Duration
}

// Opener hands out a fresh page of kind and the function that releases it.
type Opener func(kind session.Kind) (browser.Page, func(), error)

// SessionOpener opens each page in a new browser session configured by configFor.
func SessionOpener(configFor func(session.Kind) session.Config, logger *slog.Logger) Opener {
	return func(kind session.Kind) (browser.Page, func(), error) {
		m, err := session.NewManager(configFor(kind), logger)
		if err != nil {
			return nil, nil, err
		}
		s, err := m.Create()
		if err != nil {
			return nil, nil, err
		}
		return s, m.Quit, nil
	}
}

// Harness is what a scenario works with. Its page objects are bound to a page
// that lives exactly as long as the scenario.
type Harness struct {
	Env       Env
	Kind      session.Kind
	Page      browser.Page
	Login     *pages.LoginPage
	Dashboard *pages.DashboardPage
	Logger    *slog.Logger
}

func (h *Harness) navigate() error {
	ok, err := h.Login.Navigate(h.Env.BaseURL)
	if err != nil {
		return err
	}
	if !ok {
		return failf("failed to navigate to login page %s", h.Env.BaseURL)
	}
	return nil
}

type Runner struct {
	Env  Env
	Open Opener

	// Artifacts, when set, receives failure screenshots and the run report.
	Artifacts *artifacts.Store
	Logger    *slog.Logger
}

// Run runs scenarios one after another. A scenario whose page cannot be
// opened fails without running. Once ctx is done the remaining scenarios are
// skipped.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) *Report {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	report := &Report{ID: uuid.NewString(), Started: time.Now()}
	logger = logger.With("run", report.ID)
	logger.Info("starting run", "scenarios", len(scenarios))

	for _, sc := range scenarios {
		if ctx.Err() != nil {
			report.Results = append(report.Results, Result{Name: sc.Name, Browser: sc.Kind.String(), Status: Skipped})
			continue
		}
		report.Results = append(report.Results, r.runOne(sc, logger))
	}

	report.Finished = time.Now()
	logger.Info("finished run",
		"passed", len(report.Passed()),
		"failed", len(report.Failed()),
		"dur", report.Duration().String(),
	)

	if r.Artifacts != nil {
		if path, err := r.Artifacts.SaveJSON(report.Filename(), report); err != nil {
			logger.Error("failed to save run report", "error", err)
		} else {
			report.Path = path
		}
	}
	return report
}

func (r *Runner) runOne(sc Scenario, logger *slog.Logger) Result {
	logger = logger.With("test", sc.Name, "browser", sc.Kind.String())
	logger.Info("starting test")

	start := time.Now()
	result := Result{Name: sc.Name, Browser: sc.Kind.String()}

	page, release, err := r.Open(sc.Kind)
	if err != nil {
		result.fail(err, start)
		r.log(logger, result)
		return result
	}
	defer release()

	h := &Harness{
		Env:       r.Env,
		Kind:      sc.Kind,
		Page:      page,
		Login:     pages.NewLoginPage(page, r.Env.ExplicitWait, logger),
		Dashboard: pages.NewDashboardPage(page, r.Env.ExplicitWait, logger),
		Logger:    logger,
	}
	if r.Env.PollInterval > 0 {
		h.Login.PollInterval = r.Env.PollInterval
		h.Dashboard.PollInterval = r.Env.PollInterval
	}

	err = sc.Run(h)
	r.inspect(page, &result, logger)

	if err != nil {
		result.fail(err, start)
		if r.Artifacts != nil && !errors.Is(err, browser.ErrSessionClosed) {
			if path, serr := r.Artifacts.SaveScreenshot(page, sc.Name); serr == nil {
				result.Screenshot = path
			}
		}
		r.log(logger, result)
		return result
	}

	result.Status = Passed
	result.Duration = time.Since(start)
	r.log(logger, result)
	return result
}

// inspect records the browser behind page and what it wrote to the console.
func (r *Runner) inspect(page browser.Page, result *Result, logger *slog.Logger) {
	d, ok := page.(browser.Describer)
	if !ok {
		return
	}

	info := d.Info()
	result.BrowserInfo = &info
	result.Console = d.ConsoleLogs()
	if len(result.Console) == 0 {
		return
	}

	logger.Info("browser logs captured", "entries", len(result.Console))
	for _, entry := range result.Console {
		if entry.Level == "error" {
			logger.Warn("browser console error", "text", entry.Text)
		}
	}
}

func (r *Runner) log(logger *slog.Logger, result Result) {
	attrs := []any{"status", result.Status, "dur", result.Duration.String()}
	if result.Status == Passed {
		logger.Info("test result", attrs...)
		return
	}

	attrs = append(attrs, "error", result.Error)
	if result.Screenshot != "" {
		attrs = append(attrs, "screenshot", result.Screenshot)
	}
	logger.Error("test result", attrs...)
}
