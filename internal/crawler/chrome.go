package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sjsage522/foreclosureworker/logger"
	apperrors "sjsage522/foreclosureworker/pkg/errors"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const chromeUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// ChromeOptions configures how a ChromeSession reaches a browser
type ChromeOptions struct {
	// RemoteAddr is the DevTools websocket of a running ChromeDB instance.
	// When empty a local Chrome is launched.
	RemoteAddr string
	Headless   bool
	// SettleTimeout bounds the wait for the networkIdle lifecycle event.
	SettleTimeout time.Duration
}

// ChromeSession drives one Chrome tab through chromedp
type ChromeSession struct {
	tab          context.Context
	cancelTab    context.CancelFunc
	cancelAlloc  context.CancelFunc
	settle       time.Duration
	networkIdles chan struct{}
}

// OpenChromeSession starts (or attaches to) a browser and opens a tab.
func OpenChromeSession(ctx context.Context, opts ChromeOptions) (*ChromeSession, error) {
	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)
	if opts.RemoteAddr != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteAddr)
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(chromeUserAgent),
		)
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(context.Background(), execOpts...)
	}

	tab, cancelTab := chromedp.NewContext(allocCtx)

	settle := opts.SettleTimeout
	if settle <= 0 {
		settle = 10 * time.Second
	}
	s := &ChromeSession{
		tab:          tab,
		cancelTab:    cancelTab,
		cancelAlloc:  cancelAlloc,
		settle:       settle,
		networkIdles: make(chan struct{}, 1),
	}

	chromedp.ListenTarget(tab, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			select {
			case s.networkIdles <- struct{}{}:
			default:
			}
		}
	})

	// The first Run allocates the browser and ties it to the tab context, so it
	// must not use a shorter-lived derived context.
	stop := context.AfterFunc(ctx, cancelTab)
	err := chromedp.Run(tab, page.SetLifecycleEventsEnabled(true))
	stop()
	if err != nil {
		s.Close()
		return nil, apperrors.NewSession("chrome", "failed to start browser tab", err)
	}

	logger.Debug("Chrome session opened (remote=%t)", opts.RemoteAddr != "")
	return s, nil
}

// ChromeSessionOpener returns a SessionOpener creating a ChromeSession per run.
func ChromeSessionOpener(opts ChromeOptions) SessionOpener {
	return func(ctx context.Context) (Session, error) {
		return OpenChromeSession(ctx, opts)
	}
}

// run executes actions on the tab, stopping early if ctx is cancelled.
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// settleAfter runs actions and then waits for the page's network to go idle.
// A page that never reports idle within the settle timeout is accepted as is.
func (s *ChromeSession) settleAfter(ctx context.Context, actions ...chromedp.Action) error {
	select {
	case <-s.networkIdles:
	default:
	}

	if err := s.run(ctx, actions...); err != nil {
		return err
	}

	timer := time.NewTimer(s.settle)
	defer timer.Stop()
	select {
	case <-s.networkIdles:
	case <-timer.C:
		logger.Debug("network did not settle within %s, continuing", s.settle)
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	return s.settleAfter(ctx, chromedp.Navigate(url))
}

func (s *ChromeSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s", ErrElementTimeout, selector)
	}
	return err
}

func (s *ChromeSession) SetValue(ctx context.Context, selector, value string) error {
	return s.run(ctx, chromedp.SetValue(selector, value, chromedp.ByQuery))
}

func (s *ChromeSession) Click(ctx context.Context, selector string) error {
	return s.settleAfter(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (s *ChromeSession) URL(ctx context.Context) (string, error) {
	var location string
	if err := s.run(ctx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

// Close closes the tab and releases the browser allocator.
func (s *ChromeSession) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}
