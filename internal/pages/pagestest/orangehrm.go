// Package pagestest serves a scripted copy of the OrangeHRM login flow on a
// fakedom page.
package pagestest

import (
	"github.com/danielholmes839/loginsuite/internal/browser"
	"github.com/danielholmes839/loginsuite/internal/browser/fakedom"
)

const (
	ValidUsername = "Admin"
	ValidPassword = "admin123"
)

const LoginHTML = `<html><head><title>OrangeHRM</title></head><body>
<form class="oxd-form">
  <input name="username" placeholder="Username">
  <input name="password" type="password" placeholder="Password">
  <button type="submit" class="orangehrm-login-button">Login</button>
</form>
</body></html>`

const LoginErrorHTML = `<html><head><title>OrangeHRM</title></head><body>
<div class="oxd-alert oxd-alert--error" role="alert">
  <div class="oxd-alert-content oxd-alert-content--error">
    <p class="oxd-alert-content-text">Invalid credentials</p>
  </div>
</div>
<form class="oxd-form">
  <input name="username" placeholder="Username">
  <input name="password" type="password" placeholder="Password">
  <button type="submit" class="orangehrm-login-button">Login</button>
</form>
</body></html>`

const LoadingHTML = `<html><head><title>OrangeHRM</title></head><body>
<div class="oxd-loading-spinner-container"><div class="oxd-loading-spinner"></div></div>
</body></html>`

const DashboardHTML = `<html><head><title>OrangeHRM</title></head><body>
<header class="oxd-topbar">
  <h6 class="oxd-text oxd-topbar-header-breadcrumb-module">Dashboard</h6>
  <span class="oxd-userdropdown-tab">
    <img class="oxd-userdropdown-img" src="/pim/viewPhoto/empNumber/7">
    <p class="oxd-userdropdown-name">Paul Collings</p>
  </span>
</header>
<nav class="oxd-navbar-nav"><a href="/admin">Admin</a></nav>
</body></html>`

var (
	usernameField = browser.Name("username")
	passwordField = browser.Name("password")
	submitButton  = browser.CSS("button[type='submit']")
)

// OrangeHRM returns a page serving the login form at loginURL. Submitting
// ValidUsername/ValidPassword shows a spinner and then the dashboard; any
// other pair with both fields filled shows the error banner the same way; an
// empty field leaves the form untouched.
func OrangeHRM(loginURL string) *fakedom.Page {
	p := fakedom.New("<html></html>")
	p.Route(loginURL, LoginHTML)

	p.OnClick(submitButton, func(p *fakedom.Page) {
		username := p.Value(usernameField)
		password := p.Value(passwordField)
		if username == "" || password == "" {
			return
		}

		next := LoginErrorHTML
		if username == ValidUsername && password == ValidPassword {
			next = DashboardHTML
		}
		p.SetHTML(LoadingHTML)
		p.AfterLookups(2, func(p *fakedom.Page) { p.SetHTML(next) })
	})
	return p
}
