package pages

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/danielholmes839/loginsuite/internal/browser"
	"github.com/danielholmes839/loginsuite/internal/browser/fakedom"
	"github.com/danielholmes839/loginsuite/internal/pages/pagestest"
)

const (
	loginURL = "https://hrm.test/web/index.php/auth/login"

	testTimeout  = 200 * time.Millisecond
	testInterval = 5 * time.Millisecond
)

const (
	loginHTML      = pagestest.LoginHTML
	loginErrorHTML = pagestest.LoginErrorHTML
	loadingHTML    = pagestest.LoadingHTML
	dashboardHTML  = pagestest.DashboardHTML
)

func orangeHRM() *fakedom.Page {
	return pagestest.OrangeHRM(loginURL)
}

func newLoginPage(p browser.Page, logger *slog.Logger) *LoginPage {
	lp := NewLoginPage(p, testTimeout, logger)
	lp.PollInterval = testInterval
	return lp
}

func newDashboardPage(p browser.Page) *DashboardPage {
	dp := NewDashboardPage(p, testTimeout, nil)
	dp.PollInterval = testInterval
	return dp
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}
