package suite

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielholmes839/loginsuite/internal/browser/session"
	"github.com/danielholmes839/loginsuite/internal/credentials"
	"github.com/danielholmes839/loginsuite/internal/wait"
)

// CrossBrowserKinds are the browsers the cross browser login runs in.
var CrossBrowserKinds = []session.Kind{session.Chrome, session.Firefox}

// Scenario is one named check run against a fresh page of Kind.
type Scenario struct {
	Name string
	Kind session.Kind
	Run  func(h *Harness) error
}

// Scenarios returns the login checks for kind. With crossBrowser set, a login
// in each of CrossBrowserKinds is added.
func Scenarios(kind session.Kind, crossBrowser bool) []Scenario {
	scenarios := []Scenario{
		{Name: "successful_login", Kind: kind, Run: SuccessfulLogin},
		{Name: "login_with_invalid_credentials", Kind: kind, Run: InvalidCredentials},
		{Name: "login_page_elements", Kind: kind, Run: PageElements},
	}
	if !crossBrowser {
		return scenarios
	}

	for _, k := range CrossBrowserKinds {
		scenarios = append(scenarios, Scenario{
			Name: "cross_browser_login_" + k.String(),
			Kind: k,
			Run:  CrossBrowserLogin,
		})
	}
	return scenarios
}

// SuccessfulLogin logs in with the valid credentials and expects the dashboard.
func SuccessfulLogin(h *Harness) error {
	if err := h.navigate(); err != nil {
		return err
	}

	ok, err := h.Login.Login(h.Env.Username, h.Env.Password)
	if err != nil {
		return err
	}
	if !ok {
		return failf("login process failed: %s", h.Login.ErrorMessage())
	}

	if !h.Dashboard.IsDisplayed() {
		return failf("dashboard is not displayed after login")
	}
	if !h.Dashboard.IsUserLoggedIn() {
		return failf("user dropdown not found, user may not be logged in")
	}
	if title := h.Dashboard.Title(); title != "Dashboard" {
		return failf("expected 'Dashboard' title, got %q", title)
	}
	return nil
}

// InvalidCredentials tries every invalid pair. Each attempt must either be
// refused with an error message or at least not reach the dashboard.
func InvalidCredentials(h *Harness) error {
	if err := h.navigate(); err != nil {
		return err
	}

	attempts := append(credentials.InvalidCredentials(), h.Env.ExtraInvalid...)
	for _, cred := range attempts {
		h.Logger.Info("testing invalid credentials", "credentials", cred.String())

		ok, err := h.Login.Login(cred.Username, cred.Password)
		if err != nil {
			return err
		}

		if ok {
			if h.Dashboard.IsDisplayed() {
				return failf("dashboard should not be displayed with invalid credentials %s", cred)
			}
		} else {
			msg := h.Login.ErrorMessage()
			if msg == "" {
				return failf("expected an error message for invalid credentials %s", cred)
			}
			h.Logger.Info("error message received", "message", msg)
		}

		if err := h.navigate(); err != nil {
			return err
		}
	}
	return nil
}

// PageElements checks the form accepts input and that the login button is
// ready, without submitting.
func PageElements(h *Harness) error {
	if err := h.navigate(); err != nil {
		return err
	}

	ok, err := h.Login.EnterUsername("test_user")
	if err != nil {
		return err
	}
	if !ok {
		return failf("failed to enter text in username field")
	}

	ok, err = h.Login.EnterPassword("test_password")
	if err != nil {
		return err
	}
	if !ok {
		return failf("failed to enter text in password field")
	}

	_, err = wait.Until(context.Background(), "login button ready", h.Env.ExplicitWait, func() (bool, bool, error) {
		ready := h.Login.SubmitReady()
		return ready, ready, nil
	}, wait.WithInterval(h.Env.PollInterval))
	if err != nil {
		return failf("login button should be visible and enabled: %v", err)
	}

	if title := h.Login.PageTitle(); !strings.Contains(title, "OrangeHRM") {
		return failf("expected 'OrangeHRM' in page title, got %q", title)
	}
	return nil
}

// CrossBrowserLogin is the short form of SuccessfulLogin run once per browser.
func CrossBrowserLogin(h *Harness) error {
	if err := h.navigate(); err != nil {
		return err
	}

	ok, err := h.Login.Login(h.Env.Username, h.Env.Password)
	if err != nil {
		return err
	}
	if !ok {
		return failf("login failed in %s", h.Kind)
	}
	if !h.Dashboard.IsDisplayed() {
		return failf("dashboard not displayed in %s", h.Kind)
	}
	return nil
}

// AssertionError is a check that did not hold, as opposed to a fault while
// driving the page.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string {
	return e.Msg
}

func failf(format string, args ...any) error {
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}
