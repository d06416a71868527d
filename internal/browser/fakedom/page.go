// Package fakedom is an in-memory browser.Page over a static HTML document.
// Page objects can be exercised against it without a browser: navigation
// swaps documents, clicks run scripted handlers, and handlers can be
// scheduled to run after a number of lookups to model content that appears
// or vanishes while a caller polls.
//
// A Page is meant to be driven by one goroutine, like a real session.
package fakedom

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/danielholmes839/loginsuite/internal/browser"
)

// pngHeader is what Screenshot returns; enough for callers that check the format.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type pending struct {
	after int
	fn    func(*Page)
}

type Page struct {
	doc    *goquery.Document
	url    string
	routes map[string]string

	onClick map[browser.Locator]func(*Page)
	pending []pending
	lookups int

	gotoErr error
	closed  bool

	console []browser.ConsoleEntry
}

var (
	_ browser.Page      = (*Page)(nil)
	_ browser.Describer = (*Page)(nil)
)

// New returns a page showing html.
func New(html string) *Page {
	p := &Page{
		routes:  map[string]string{},
		onClick: map[browser.Locator]func(*Page){},
	}
	p.SetHTML(html)
	return p
}

// SetHTML replaces the current document.
func (p *Page) SetHTML(html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// the html tokenizer accepts any input
		panic(fmt.Sprintf("fakedom: parse document: %v", err))
	}
	p.doc = doc
}

// Route makes Goto(url) load html.
func (p *Page) Route(url, html string) {
	p.routes[url] = html
}

// OnClick runs fn when loc is clicked.
func (p *Page) OnClick(loc browser.Locator, fn func(*Page)) {
	p.onClick[loc] = fn
}

// AfterLookups runs fn once n more element lookups have been made.
func (p *Page) AfterLookups(n int, fn func(*Page)) {
	p.pending = append(p.pending, pending{after: p.lookups + n, fn: fn})
}

// FailNavigation makes every following Goto fail with err. A nil err restores
// normal navigation.
func (p *Page) FailNavigation(err error) {
	p.gotoErr = err
}

// Close makes every following call fail with browser.ErrSessionClosed.
func (p *Page) Close() {
	p.closed = true
}

// Log adds a console message, as if the page's scripts had written it.
func (p *Page) Log(level, text string) {
	p.console = append(p.console, browser.ConsoleEntry{Level: level, Text: text, Time: time.Now()})
}

func (p *Page) Info() browser.Info {
	return browser.Info{Name: "fakedom", Headless: true}
}

func (p *Page) ConsoleLogs() []browser.ConsoleEntry {
	return append([]browser.ConsoleEntry(nil), p.console...)
}

// URL is the last URL navigated to.
func (p *Page) URL() string {
	return p.url
}

// Value is the current value of the first element loc resolves to.
func (p *Page) Value(loc browser.Locator) string {
	sel, err := p.find(loc)
	if err != nil || sel.Length() == 0 {
		return ""
	}
	return sel.First().AttrOr("value", "")
}

func (p *Page) Goto(url string) error {
	if p.closed {
		return browser.ErrSessionClosed
	}
	if p.gotoErr != nil {
		return p.gotoErr
	}

	html, ok := p.routes[url]
	if !ok {
		return fmt.Errorf("navigate to %s: net::ERR_NAME_NOT_RESOLVED", url)
	}
	p.url = url
	p.SetHTML(html)
	return nil
}

func (p *Page) Count(loc browser.Locator) (int, error) {
	if p.closed {
		return 0, browser.ErrSessionClosed
	}
	p.lookup()

	sel, err := p.find(loc)
	if err != nil {
		return 0, err
	}
	return sel.Length(), nil
}

func (p *Page) IsVisible(loc browser.Locator) (bool, error) {
	first, err := p.first(loc)
	if errors.Is(err, browser.ErrNoElement) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return visible(first), nil
}

func (p *Page) IsEnabled(loc browser.Locator) (bool, error) {
	first, err := p.first(loc)
	if err != nil {
		return false, err
	}
	_, disabled := first.Attr("disabled")
	return !disabled, nil
}

func (p *Page) Text(loc browser.Locator) (string, error) {
	first, err := p.first(loc)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(first.Text()), nil
}

func (p *Page) Fill(loc browser.Locator, value string) error {
	first, err := p.first(loc)
	if err != nil {
		return err
	}
	first.SetAttr("value", value)
	return nil
}

func (p *Page) Click(loc browser.Locator) error {
	if _, err := p.first(loc); err != nil {
		return err
	}
	if fn, ok := p.onClick[loc]; ok {
		fn(p)
	}
	return nil
}

func (p *Page) Title() (string, error) {
	if p.closed {
		return "", browser.ErrSessionClosed
	}
	return strings.TrimSpace(p.doc.Find("title").First().Text()), nil
}

func (p *Page) Content() (string, error) {
	if p.closed {
		return "", browser.ErrSessionClosed
	}
	return p.doc.Html()
}

func (p *Page) Screenshot() ([]byte, error) {
	if p.closed {
		return nil, browser.ErrSessionClosed
	}
	return bytes.Clone(pngHeader), nil
}

func (p *Page) lookup() {
	p.lookups++

	remaining := p.pending[:0]
	var due []pending
	for _, pd := range p.pending {
		if p.lookups >= pd.after {
			due = append(due, pd)
		} else {
			remaining = append(remaining, pd)
		}
	}
	p.pending = remaining

	for _, pd := range due {
		pd.fn(p)
	}
}

func (p *Page) first(loc browser.Locator) (*goquery.Selection, error) {
	if p.closed {
		return nil, browser.ErrSessionClosed
	}
	p.lookup()

	sel, err := p.find(loc)
	if err != nil {
		return nil, err
	}
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNoElement, loc)
	}
	return sel.First(), nil
}

func (p *Page) find(loc browser.Locator) (*goquery.Selection, error) {
	css, err := selector(loc)
	if err != nil {
		return nil, err
	}
	return p.doc.Find(css), nil
}

// selector translates loc into a CSS selector goquery can match. XPath is not
// supported by the double.
func selector(loc browser.Locator) (string, error) {
	if loc.Value == "" {
		return "", fmt.Errorf("%w: empty value for %q", browser.ErrInvalidLocator, loc.Strategy)
	}

	var css string
	switch loc.Strategy {
	case browser.ByID:
		css = "[id=" + strconv.Quote(loc.Value) + "]"
	case browser.ByName:
		css = "[name=" + strconv.Quote(loc.Value) + "]"
	case browser.ByCSS:
		css = loc.Value
	case browser.ByText:
		css = ":containsOwn(" + strconv.Quote(loc.Value) + ")"
	default:
		return "", fmt.Errorf("%w: %q", browser.ErrUnsupportedStrategy, loc.Strategy)
	}

	// goquery matches nothing for a bad selector; surface it instead
	if _, err := cascadia.ParseGroup(css); err != nil {
		return "", fmt.Errorf("%w: %s: %v", browser.ErrInvalidLocator, loc, err)
	}
	return css, nil
}

// visible mirrors the browser's notion closely enough for markup written by
// hand: hidden attributes and inline display:none/visibility:hidden on the
// element or any ancestor hide it.
func visible(s *goquery.Selection) bool {
	for node := s; node.Length() > 0; node = node.Parent() {
		if _, hidden := node.Attr("hidden"); hidden {
			return false
		}
		style := strings.ReplaceAll(strings.ToLower(node.AttrOr("style", "")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}
