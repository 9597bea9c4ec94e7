package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Tab wraps a Rod page with the setup the watcher needs: stealth applied
// and small evaluation helpers.
type Tab struct {
	Page    *rod.Page
	PageURL string
}

// OpenTab creates a new tab with stealth applied and navigates to the URL.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return &Tab{Page: page, PageURL: pageURL}, nil
}

// AttachTab wraps an existing page, for when the user is already on the
// site in a remote browser.
func AttachTab(page *rod.Page, pageURL string) *Tab {
	return &Tab{Page: page, PageURL: pageURL}
}

// EvalString evaluates a JS expression and returns its string value.
func (t *Tab) EvalString(ctx context.Context, js string) (string, error) {
	res, err := t.Page.Context(ctx).Eval(js)
	if err != nil {
		return "", fmt.Errorf("browser: eval: %w", err)
	}
	return res.Value.Str(), nil
}

// Path returns the current location.pathname.
func (t *Tab) Path(ctx context.Context) (string, error) {
	return t.EvalString(ctx, `() => window.location.pathname`)
}

// Run evaluates a JS expression for its side effects.
func (t *Tab) Run(ctx context.Context, js string) error {
	if _, err := t.Page.Context(ctx).Eval(js); err != nil {
		return fmt.Errorf("browser: eval: %w", err)
	}
	return nil
}

// AddBinding registers a page binding callable from injected JS.
func (t *Tab) AddBinding(name string) error {
	return proto.RuntimeAddBinding{Name: name}.Call(t.Page)
}

// OnBinding invokes fn with the payload of every call the page makes to
// the named binding. Blocks until ctx is cancelled.
func (t *Tab) OnBinding(ctx context.Context, name string, fn func(payload string)) {
	t.Page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name == name {
			fn(e.Payload)
		}
	})()
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
