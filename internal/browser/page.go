package browser

import (
	"errors"
	"time"
)

var (
	// ErrSessionClosed is returned by every call made on a session after it was quit.
	ErrSessionClosed = errors.New("browser session is closed")

	// ErrSessionBusy is returned when a second caller uses a session while
	// another call on it is still in flight.
	ErrSessionBusy = errors.New("browser session is in use by another caller")

	ErrNoElement           = errors.New("no element matches locator")
	ErrTimeout             = errors.New("browser action timed out")
	ErrUnsupportedStrategy = errors.New("unsupported locator strategy")
	ErrInvalidLocator      = errors.New("invalid locator")
)

// Page is the DOM-level surface page objects are built on. Queries never wait:
// Count, IsVisible, IsEnabled and Text look at the page as it is right now and
// waiting is left to the caller.
type Page interface {
	Goto(url string) error

	Count(loc Locator) (int, error)
	IsVisible(loc Locator) (bool, error)
	IsEnabled(loc Locator) (bool, error)
	Text(loc Locator) (string, error)

	// Fill clears the first matching element and writes value into it.
	Fill(loc Locator, value string) error
	Click(loc Locator) error

	Title() (string, error)
	Content() (string, error)
	Screenshot() ([]byte, error)
}

// Info describes the browser behind a page.
type Info struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
	Headless bool   `json:"headless"`
}

// ConsoleEntry is one message the page wrote to the browser console.
type ConsoleEntry struct {
	Level string    `json:"level"`
	Text  string    `json:"text"`
	Time  time.Time `json:"time"`
}

// Describer is implemented by pages that can describe their browser and
// replay its console output. Both keep working after the page is closed.
type Describer interface {
	Info() Info
	ConsoleLogs() []ConsoleEntry
}

// IsFatal reports whether err means the page can no longer be driven, as
// opposed to an element being absent or late.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrSessionBusy) ||
		errors.Is(err, ErrUnsupportedStrategy) ||
		errors.Is(err, ErrInvalidLocator)
}
