package pages

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielholmes839/loginsuite/internal/browser"
	"github.com/danielholmes839/loginsuite/internal/wait"
)

// DashboardPage answers questions about the page shown after a login. None of
// its methods return errors; anything that goes wrong reads as "no".
type DashboardPage struct {
	page    browser.Page
	timeout time.Duration

	Locators     Locators
	PollInterval time.Duration
	Logger       *slog.Logger
}

func NewDashboardPage(page browser.Page, timeout time.Duration, logger *slog.Logger) *DashboardPage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DashboardPage{
		page:         page,
		timeout:      timeout,
		Locators:     DashboardLocators(),
		PollInterval: wait.DefaultInterval,
		Logger:       logger.With("page", "dashboard"),
	}
}

// IsDisplayed waits for the header and the user dropdown and reports whether
// both are visible. Both waits share one timeout.
func (dp *DashboardPage) IsDisplayed() bool {
	deadline := time.Now().Add(dp.timeout)

	for _, e := range []Element{DashboardHeader, UserDropdown} {
		loc := dp.Locators.get(e)

		// a spent budget still gets one look
		remaining := max(time.Until(deadline), 0)
		if _, err := wait.ForPresence(context.Background(), dp.page, loc, remaining, dp.interval()); err != nil {
			dp.logFailure("dashboard not displayed", e, err)
			return false
		}

		visible, err := dp.page.IsVisible(loc)
		if err != nil || !visible {
			dp.logFailure("dashboard element not visible", e, err)
			return false
		}
	}

	dp.Logger.Info("dashboard is displayed")
	return true
}

// Title is the header text, or "" when there is no header. It does not wait.
func (dp *DashboardPage) Title() string {
	loc := dp.Locators.get(DashboardHeader)

	n, err := dp.page.Count(loc)
	if err != nil || n == 0 {
		dp.logFailure("could not get dashboard title", DashboardHeader, err)
		return ""
	}

	text, err := dp.page.Text(loc)
	if err != nil {
		dp.logFailure("could not get dashboard title", DashboardHeader, err)
		return ""
	}
	return text
}

func (dp *DashboardPage) IsUserLoggedIn() bool {
	loc := dp.Locators.get(UserDropdown)

	if err := wait.ForInteractable(context.Background(), dp.page, loc, dp.timeout, dp.interval()); err != nil {
		dp.logFailure("user not logged in", UserDropdown, err)
		return false
	}

	visible, err := dp.page.IsVisible(loc)
	if err != nil {
		dp.logFailure("user not logged in", UserDropdown, err)
		return false
	}
	return visible
}

func (dp *DashboardPage) logFailure(msg string, e Element, err error) {
	switch {
	case err == nil, wait.IsTimeout(err):
		dp.Logger.Error(msg, "element", e, "error", err)
	default:
		dp.Logger.Warn(msg, "element", e, "error", err, "fatal", browser.IsFatal(err))
	}
}

func (dp *DashboardPage) interval() wait.Option {
	return wait.WithInterval(dp.PollInterval)
}
