package fetcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// RodFetcher implements the Fetcher interface using rod (headless browser).
// It is used for documentation pages that build their tables client-side.
type RodFetcher struct {
	browser *rod.Browser
	logger  *zap.Logger
	timeout time.Duration
}

// NewRodFetcher launches a headless browser and connects to it
func NewRodFetcher(logger *zap.Logger, timeout time.Duration) (*RodFetcher, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false). // Disable leakless to avoid antivirus issues
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("mute-audio")

	// Try to use system Chrome first, fallback to downloading Chromium
	for _, path := range []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	} {
		if _, err := os.Stat(path); err == nil {
			l = l.Bin(path)
			break
		}
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodFetcher{
		browser: browser,
		logger:  logger,
		timeout: timeout,
	}, nil
}

// Close closes the browser
func (rf *RodFetcher) Close() error {
	if rf.browser != nil {
		return rf.browser.Close()
	}
	return nil
}

// Fetch implements the Fetcher interface
func (rf *RodFetcher) Fetch(url string) (string, error) {
	rf.logger.Info("fetching", zap.String("url", url), zap.String("via", "browser"))

	page, err := rf.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	ctx, cancel := fetchContext(rf.timeout)
	defer cancel()
	page = page.Context(ctx)

	status := 0
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = e.Response.Status
		return true
	})

	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetchFailure, url, err)
	}
	wait()

	if status < 200 || status > 299 {
		return "", fmt.Errorf("%w: %s: status %d", ErrFetchFailure, url, status)
	}

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("failed to wait for page load: %w", err)
	}

	// Wait for client-side rendering to settle
	if err := page.WaitStable(500 * time.Millisecond); err != nil {
		rf.logger.Warn("page did not stabilize, continuing anyway", zap.String("url", url), zap.Error(err))
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}

	return html, nil
}

// fetchContext bounds one page load; a zero or negative timeout leaves it
// unbounded
func fetchContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}
