package pages

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielholmes839/loginsuite/internal/browser"
	"github.com/danielholmes839/loginsuite/internal/wait"
)

// LoginState tracks how far a LoginPage has driven the form.
type LoginState int

const (
	Unvisited LoginState = iota
	Loaded
	Submitting
	ResultKnown
)

func (s LoginState) String() string {
	switch s {
	case Unvisited:
		return "unvisited"
	case Loaded:
		return "loaded"
	case Submitting:
		return "submitting"
	case ResultKnown:
		return "result_known"
	}
	return "unknown"
}

// DefaultLoadingTimeout bounds WaitForLoadingToComplete inside Login.
const DefaultLoadingTimeout = 10 * time.Second

// LoginPage drives the login form. It borrows the page; the page must stay
// open for as long as the LoginPage is used.
//
// Expected failures (an element that never shows up, a navigation that does
// not land) come back as false with a nil error. A non-nil error means the page
// itself cannot be driven: the session was closed or is in use elsewhere, or
// a locator is malformed.
type LoginPage struct {
	page    browser.Page
	timeout time.Duration
	state   LoginState

	Locators     Locators
	PollInterval time.Duration
	Logger       *slog.Logger
}

func NewLoginPage(page browser.Page, timeout time.Duration, logger *slog.Logger) *LoginPage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LoginPage{
		page:         page,
		timeout:      timeout,
		Locators:     LoginLocators(),
		PollInterval: wait.DefaultInterval,
		Logger:       logger.With("page", "login"),
	}
}

func (lp *LoginPage) State() LoginState {
	return lp.state
}

// Navigate loads baseURL and waits for the username field.
func (lp *LoginPage) Navigate(baseURL string) (bool, error) {
	lp.state = Unvisited
	lp.Logger.Info("navigating to login page", "url", baseURL)

	if err := lp.page.Goto(baseURL); err != nil {
		if browser.IsFatal(err) {
			return false, err
		}
		lp.Logger.Error("failed to navigate to login page", "url", baseURL, "error", err)
		return false, nil
	}

	_, err := wait.ForPresence(context.Background(), lp.page, lp.Locators.get(UsernameField), lp.timeout, lp.interval())
	if ok, err := lp.settle(err, "login page did not load, username field not found"); !ok {
		return false, err
	}

	lp.state = Loaded
	lp.Logger.Info("navigated to login page")
	return true, nil
}

func (lp *LoginPage) EnterUsername(username string) (bool, error) {
	ok, err := lp.fill(UsernameField, username)
	if ok {
		lp.Logger.Info("entered username", "username", username)
	}
	return ok, err
}

func (lp *LoginPage) EnterPassword(password string) (bool, error) {
	ok, err := lp.fill(PasswordField, password)
	if ok {
		lp.Logger.Info("entered password")
	}
	return ok, err
}

// Submit clicks the login button once it can be clicked.
func (lp *LoginPage) Submit() (bool, error) {
	loc := lp.Locators.get(LoginButton)

	err := wait.ForInteractable(context.Background(), lp.page, loc, lp.timeout, lp.interval())
	if ok, err := lp.settle(err, "login button not found or not clickable"); !ok {
		return false, err
	}

	if ok, err := lp.settle(lp.page.Click(loc), "failed to click login button"); !ok {
		return false, err
	}

	lp.state = Submitting
	lp.Logger.Info("clicked login button")
	return true, nil
}

// WaitForLoadingToComplete waits for the loading spinner to go away. It
// always reports true: a spinner that never showed up, one that came and
// went, and one that outlasted the timeout all let the flow carry on, and so
// does a lookup fault, which is only logged.
func (lp *LoginPage) WaitForLoadingToComplete(timeout time.Duration) bool {
	err := wait.ForAbsence(context.Background(), lp.page, lp.Locators.get(LoadingSpinner), timeout, lp.interval())
	switch {
	case err == nil:
		lp.Logger.Info("loading completed")
	case wait.IsTimeout(err):
		lp.Logger.Info("loading spinner still present after timeout, continuing", "timeout", timeout.String())
	default:
		lp.Logger.Warn("error waiting for loading to complete", "error", err)
	}
	return true
}

// ErrorMessage returns the text of the error banner, falling back to the
// "invalid credentials" message, or "" when neither is on the page. It does
// not wait.
func (lp *LoginPage) ErrorMessage() string {
	for _, e := range []Element{ErrorBanner, InvalidCredential} {
		text, found := lp.textOf(e)
		if found {
			return text
		}
	}
	return ""
}

// Login fills and submits the form and reports whether it went through
// without an error message. Whether the browser then lands somewhere
// authenticated is for DashboardPage to tell.
func (lp *LoginPage) Login(username, password string) (bool, error) {
	lp.Logger.Info("attempting to login", "username", username)

	steps := []func() (bool, error){
		func() (bool, error) { return lp.EnterUsername(username) },
		func() (bool, error) { return lp.EnterPassword(password) },
		lp.Submit,
	}
	for _, step := range steps {
		if ok, err := step(); !ok || err != nil {
			return false, err
		}
	}

	lp.WaitForLoadingToComplete(DefaultLoadingTimeout)
	lp.state = ResultKnown

	if msg := lp.ErrorMessage(); msg != "" {
		lp.Logger.Error("login failed with error", "message", msg)
		return false, nil
	}

	lp.Logger.Info("login process completed")
	return true, nil
}

// SubmitReady reports whether the login button is visible and enabled right now.
func (lp *LoginPage) SubmitReady() bool {
	loc := lp.Locators.get(LoginButton)

	visible, err := lp.page.IsVisible(loc)
	if err != nil || !visible {
		return false
	}
	enabled, err := lp.page.IsEnabled(loc)
	return err == nil && enabled
}

// PageTitle is the document title, or "" if it cannot be read.
func (lp *LoginPage) PageTitle() string {
	title, err := lp.page.Title()
	if err != nil {
		lp.Logger.Error("failed to read page title", "error", err)
		return ""
	}
	return title
}

func (lp *LoginPage) fill(e Element, value string) (bool, error) {
	loc := lp.Locators.get(e)

	err := wait.ForInteractable(context.Background(), lp.page, loc, lp.timeout, lp.interval())
	if ok, err := lp.settle(err, string(e)+" not found or not interactable"); !ok {
		return false, err
	}

	return lp.settle(lp.page.Fill(loc, value), "failed to enter text in "+string(e))
}

// textOf looks e up without waiting.
func (lp *LoginPage) textOf(e Element) (string, bool) {
	loc := lp.Locators.get(e)

	n, err := lp.page.Count(loc)
	if err != nil {
		lp.Logger.Error("failed to look up element", "element", e, "error", err)
		return "", false
	}
	if n == 0 {
		return "", false
	}

	text, err := lp.page.Text(loc)
	if err != nil {
		lp.Logger.Error("failed to read element text", "element", e, "error", err)
		return "", false
	}
	return text, true
}

// settle sorts the outcome of a wait or an action: nil is success, a fault
// that leaves the page undrivable is returned, and anything else (a timeout,
// an element that went away) is an expected failure that is only logged.
func (lp *LoginPage) settle(err error, msg string) (bool, error) {
	if err == nil {
		return true, nil
	}
	if browser.IsFatal(err) {
		return false, err
	}
	lp.Logger.Error(msg, "error", err)
	return false, nil
}

func (lp *LoginPage) interval() wait.Option {
	return wait.WithInterval(lp.PollInterval)
}
