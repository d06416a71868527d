package pages

import (
	"github.com/danielholmes839/loginsuite/internal/browser"
)

// Element is the symbolic name of something a page object interacts with.
type Element string

const (
	UsernameField     = Element("username_field")
	PasswordField     = Element("password_field")
	LoginButton       = Element("login_button")
	ErrorBanner       = Element("error_banner")
	InvalidCredential = Element("invalid_credentials")
	LoadingSpinner    = Element("loading_spinner")

	DashboardHeader = Element("dashboard_header")
	UserDropdown    = Element("user_dropdown")
	ProfilePicture  = Element("profile_picture")
	MainMenu        = Element("main_menu")
)

// Locators maps elements to how they are found on the page. Page objects own
// their map; tests replace entries to point at their own markup.
type Locators map[Element]browser.Locator

// LoginLocators are the OrangeHRM login form locators.
func LoginLocators() Locators {
	return Locators{
		UsernameField:     browser.Name("username"),
		PasswordField:     browser.Name("password"),
		LoginButton:       browser.CSS("button[type='submit']"),
		ErrorBanner:       browser.CSS("div.oxd-alert-content.oxd-alert-content--error"),
		InvalidCredential: browser.Text("Invalid credentials"),
		LoadingSpinner:    browser.CSS("div.oxd-loading-spinner"),
	}
}

// DashboardLocators are the OrangeHRM dashboard locators.
func DashboardLocators() Locators {
	return Locators{
		DashboardHeader: browser.CSS("h6.oxd-topbar-header-breadcrumb-module"),
		UserDropdown:    browser.CSS("span.oxd-userdropdown-tab"),
		ProfilePicture:  browser.CSS("img.oxd-userdropdown-img"),
		MainMenu:        browser.CSS("nav.oxd-navbar-nav"),
	}
}

func (l Locators) get(e Element) browser.Locator {
	loc, ok := l[e]
	if !ok {
		// an empty locator fails every lookup with browser.ErrInvalidLocator
		return browser.Locator{Strategy: browser.ByCSS}
	}
	return loc
}

