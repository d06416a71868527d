package wait

import (
	"context"
	"errors"
	"time"

	"github.com/danielholmes839/loginsuite/internal/browser"
)

// Counter resolves a locator against the live page.
type Counter interface {
	Count(loc browser.Locator) (int, error)
}

// Inspector can also report the state of the first element a locator resolves to.
type Inspector interface {
	Counter
	IsVisible(loc browser.Locator) (bool, error)
	IsEnabled(loc browser.Locator) (bool, error)
}

// ForPresence waits until loc resolves to at least one element and returns
// how many it resolved to.
func ForPresence(ctx context.Context, q Counter, loc browser.Locator, timeout time.Duration, opts ...Option) (int, error) {
	return Until(ctx, "presence of "+loc.String(), timeout, func() (int, bool, error) {
		n, err := q.Count(loc)
		if err != nil {
			return 0, false, err
		}
		return n, n > 0, nil
	}, opts...)
}

// ForAbsence waits until loc resolves to no element or to a hidden one. A
// lookup that fails for any reason other than the session being unusable
// counts as absent.
func ForAbsence(ctx context.Context, q Inspector, loc browser.Locator, timeout time.Duration, opts ...Option) error {
	_, err := Until(ctx, "absence of "+loc.String(), timeout, func() (struct{}, bool, error) {
		n, err := q.Count(loc)
		if err != nil {
			if browser.IsFatal(err) {
				return struct{}{}, false, err
			}
			return struct{}{}, true, nil
		}
		if n == 0 {
			return struct{}{}, true, nil
		}

		visible, err := q.IsVisible(loc)
		if err != nil {
			if browser.IsFatal(err) {
				return struct{}{}, false, err
			}
			return struct{}{}, true, nil
		}
		return struct{}{}, !visible, nil
	}, opts...)
	return err
}

// ForInteractable waits until the first element loc resolves to is visible
// and enabled. An element that goes away between checks is waited for again.
func ForInteractable(ctx context.Context, q Inspector, loc browser.Locator, timeout time.Duration, opts ...Option) error {
	_, err := Until(ctx, "interactable "+loc.String(), timeout, func() (struct{}, bool, error) {
		n, err := q.Count(loc)
		if err != nil || n == 0 {
			return struct{}{}, false, detached(err)
		}

		visible, err := q.IsVisible(loc)
		if err != nil || !visible {
			return struct{}{}, false, detached(err)
		}

		enabled, err := q.IsEnabled(loc)
		if err != nil {
			return struct{}{}, false, detached(err)
		}
		return struct{}{}, enabled, nil
	}, opts...)
	return err
}

// detached drops the error of a lookup whose element disappeared.
func detached(err error) error {
	if errors.Is(err, browser.ErrNoElement) {
		return nil
	}
	return err
}
