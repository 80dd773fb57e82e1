package crawler

import (
	"context"
	"errors"
	"time"
)

// ErrElementTimeout is returned by a Session when a selector does not appear
// within its bounded wait.
var ErrElementTimeout = errors.New("element wait timed out")

// Session is a single browser-like page driven through one town's run.
// It is owned by one caller at a time and must be closed when done.
type Session interface {
	// Navigate loads url and waits for network activity to settle.
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector is present or timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// SetValue sets the value of the input matched by selector.
	SetValue(ctx context.Context, selector, value string) error
	// Click activates the control matched by selector and waits for the
	// resulting navigation to settle.
	Click(ctx context.Context, selector string) error
	// HTML returns the current document.
	HTML(ctx context.Context) (string, error)
	// URL returns the address of the current document.
	URL(ctx context.Context) (string, error)
	Close() error
}

// SessionOpener acquires a new Session.
type SessionOpener func(ctx context.Context) (Session, error)
