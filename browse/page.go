package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

// PageOpener opens browser pages. *Session implements it with Rod; tests
// substitute fakes.
type PageOpener interface {
	Open(ctx context.Context, url string) (Page, error)
}

// Page is one navigated browser page. Close is idempotent and must be
// called on every exit path, including errors.
type Page interface {
	// HTML returns the rendered document's outer HTML.
	HTML(ctx context.Context) (string, error)
	// Links returns the absolute href of every anchor in the document.
	Links(ctx context.Context) ([]string, error)
	Close() error
}

// Session opens pages against one browser. It is exclusively owned by the
// call that created it.
type Session struct {
	browser *rod.Browser
	timeout time.Duration
	logger  *slog.Logger
}

// Open creates a stealth page and navigates it to url, waiting for load
// within the session's navigation timeout. On failure the page handle is
// released before returning; timeouts surface as ErrNavigateTimeout.
func (s *Session) Open(ctx context.Context, url string) (Page, error) {
	page, err := stealth.Page(s.browser)
	if err != nil {
		return nil, fmt.Errorf("browse: create page: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		page.Close()
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrNavigateTimeout, url)
		}
		return nil, fmt.Errorf("browse: navigate %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			page.Close()
			return nil, fmt.Errorf("%w: %s", ErrNavigateTimeout, url)
		}
		// Partial loads are usable; log and continue with what rendered.
		s.logger.Warn("browse: wait load failed", "url", url, "error", err)
	}

	return &rodPage{page: page, url: url}, nil
}

// Close releases nothing at session level: pages own their handles and the
// browser belongs to the Manager. It exists so callers can defer the whole
// session's teardown uniformly.
func (s *Session) Close() error { return nil }

type rodPage struct {
	page *rod.Page
	url  string
	once sync.Once
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browse: get HTML for %s: %w", p.url, err)
	}
	return res.Value.Str(), nil
}

func (p *rodPage) Links(ctx context.Context) ([]string, error) {
	res, err := p.page.Context(ctx).Eval(
		`() => [...document.querySelectorAll('a[href]')].map(a => a.href)`)
	if err != nil {
		return nil, fmt.Errorf("browse: collect links for %s: %w", p.url, err)
	}
	var links []string
	for _, v := range res.Value.Arr() {
		if href := v.Str(); href != "" {
			links = append(links, href)
		}
	}
	return links, nil
}

func (p *rodPage) Close() error {
	var err error
	p.once.Do(func() { err = p.page.Close() })
	return err
}
