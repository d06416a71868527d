package pages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/danielholmes839/loginsuite/internal/browser"
	"github.com/danielholmes839/loginsuite/internal/browser/fakedom"
)

func TestDashboardDisplayed(t *testing.T) {
	dp := newDashboardPage(fakedom.New(dashboardHTML))

	assert.True(t, dp.IsDisplayed())
	assert.True(t, dp.IsUserLoggedIn())
	assert.Equal(t, "Dashboard", dp.Title())
}

func TestDashboardAppearsWhilePolling(t *testing.T) {
	p := fakedom.New(loadingHTML)
	p.AfterLookups(3, func(p *fakedom.Page) { p.SetHTML(dashboardHTML) })

	assert.True(t, newDashboardPage(p).IsDisplayed())
}

func TestDashboardNotDisplayed(t *testing.T) {
	tests := map[string]string{
		"login page":      loginHTML,
		"no user menu":    `<h6 class="oxd-topbar-header-breadcrumb-module">Dashboard</h6>`,
		"hidden header":   `<div hidden><h6 class="oxd-topbar-header-breadcrumb-module">Dashboard</h6></div><span class="oxd-userdropdown-tab">Paul</span>`,
		"hidden identity": `<h6 class="oxd-topbar-header-breadcrumb-module">Dashboard</h6><span class="oxd-userdropdown-tab" style="visibility: hidden">Paul</span>`,
	}

	for name, html := range tests {
		t.Run(name, func(t *testing.T) {
			dp := newDashboardPage(fakedom.New(html))
			assert.False(t, dp.IsDisplayed())
		})
	}
}

func TestDashboardTitle(t *testing.T) {
	assert.Empty(t, newDashboardPage(fakedom.New(loginHTML)).Title())

	closed := fakedom.New(dashboardHTML)
	closed.Close()
	assert.Empty(t, newDashboardPage(closed).Title())
}

func TestUserLoggedIn(t *testing.T) {
	assert.False(t, newDashboardPage(fakedom.New(loginHTML)).IsUserLoggedIn())

	closed := fakedom.New(dashboardHTML)
	closed.Close()
	dp := newDashboardPage(closed)
	assert.False(t, dp.IsUserLoggedIn())
	assert.False(t, dp.IsDisplayed())
}

func TestDashboardReplacedLocators(t *testing.T) {
	dp := newDashboardPage(fakedom.New(`<h1 id="title">Home</h1><div id="me">Paul</div>`))
	dp.Locators[DashboardHeader] = browser.ID("title")
	dp.Locators[UserDropdown] = browser.ID("me")

	assert.True(t, dp.IsDisplayed())
	assert.Equal(t, "Home", dp.Title())
}

// lateElement hides loc from lookups until a point in time.
type lateElement struct {
	browser.Page
	loc   browser.Locator
	until time.Time
}

func (l *lateElement) Count(loc browser.Locator) (int, error) {
	if loc == l.loc && time.Now().Before(l.until) {
		return 0, nil
	}
	return l.Page.Count(loc)
}

func TestDashboardDisplayedSharesOneTimeout(t *testing.T) {
	headerOnly := fakedom.New(`<h6 class="oxd-topbar-header-breadcrumb-module">Dashboard</h6>`)
	start := time.Now()
	p := &lateElement{
		Page:  headerOnly,
		loc:   DashboardLocators()[DashboardHeader],
		until: start.Add(testTimeout * 3 / 4),
	}

	assert.False(t, newDashboardPage(p).IsDisplayed())
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, testTimeout)
	assert.Less(t, elapsed, testTimeout+testTimeout/2)
}
