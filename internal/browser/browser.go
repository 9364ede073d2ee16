package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/evangoldenberg/trawl/internal/crawler"
)

// NextSelector is the pagination control on the issue index view.
const NextSelector = "a.nav-next"

// Browser owns a launched Chromium instance. One Browser serves a whole
// run; sessions are cheap tabs on top of it.
type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// New launches a browser. Headless is the normal mode; a visible window
// is useful when a site's index renders nothing and the selectors need
// eyeballing.
func New(headless bool) (*Browser, error) {
	l := launcher.New().Headless(headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	return &Browser{launcher: l, browser: b}, nil
}

// Close shuts down the browser and cleans up the launcher's temp files.
func (b *Browser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

// Session is one browser tab driving pages for a crawl. It implements
// crawler.Pager for the index and crawler.Fetcher for detail pages when
// rendered details are requested.
type Session struct {
	page *rod.Page

	// waitTimeout bounds navigation and the wait for the next control.
	waitTimeout time.Duration

	// settleDelay is how long the page must be stable before its source
	// is read. Index pages fill their list asynchronously.
	settleDelay time.Duration

	// nextSelector locates the pagination control.
	nextSelector string

	logger *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithWaitTimeout bounds navigation and control lookup.
func WithWaitTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.waitTimeout = d
		}
	}
}

// WithSettleDelay sets the stability window before reading page source.
func WithSettleDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		if d >= 0 {
			s.settleDelay = d
		}
	}
}

// WithNextSelector overrides the pagination control selector.
func WithNextSelector(selector string) SessionOption {
	return func(s *Session) {
		if selector != "" {
			s.nextSelector = selector
		}
	}
}

// WithSessionLogger sets a custom logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession opens a fresh tab.
func (b *Browser) NewSession(opts ...SessionOption) (*Session, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	s := &Session{
		page:         page,
		waitTimeout:  10 * time.Second,
		settleDelay:  2 * time.Second,
		nextSelector: NextSelector,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the tab.
func (s *Session) Close() error {
	return s.page.Close()
}

// Open navigates to the given URL and waits for the page to settle.
func (s *Session) Open(ctx context.Context, url string) error {
	page := s.page.Context(ctx)
	if err := page.Timeout(s.waitTimeout).Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	s.settle(page)
	return nil
}

// settle waits until the page has been stable for the settle delay.
// A page that never stabilizes within the wait timeout is read anyway;
// long-polling widgets keep some index pages technically unstable forever.
func (s *Session) settle(page *rod.Page) {
	if s.settleDelay == 0 {
		return
	}
	if err := page.Timeout(s.waitTimeout).WaitStable(s.settleDelay); err != nil {
		s.logger.Debug("page did not stabilize, reading anyway", "error", err)
	}
}

// HTML returns the rendered page source.
func (s *Session) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

// NextPage activates the pagination control. An absent control returns
// crawler.ErrNoNextControl; a present control that fails to click
// returns the click error so the caller can retry.
func (s *Session) NextPage(ctx context.Context) error {
	page := s.page.Context(ctx).Timeout(s.waitTimeout)

	has, el, err := page.Has(s.nextSelector)
	if err != nil {
		return fmt.Errorf("look up %q: %w", s.nextSelector, err)
	}
	if !has {
		return crawler.ErrNoNextControl
	}

	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll to %q: %w", s.nextSelector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %q: %w", s.nextSelector, err)
	}

	s.settle(page)
	return nil
}

// Fetch loads a detail page in the session's tab and returns its
// rendered source. This is the browser-rendered alternative to the
// plain HTTP fetcher.
func (s *Session) Fetch(ctx context.Context, url string) (string, error) {
	if err := s.Open(ctx, url); err != nil {
		return "", err
	}
	return s.HTML(ctx)
}
