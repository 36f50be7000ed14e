// Package browser owns the Playwright lifecycle: one driver and one
// browser per process, one context and page per fill pass.
package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/config"
)

// Runner wraps a launched browser. It is safe to open pages from
// multiple goroutines; each page gets its own browser context.
type Runner struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	cfg     config.BrowserConfig
	logger  *zap.Logger
}

// NewRunner starts Playwright and launches Chromium.
func NewRunner(cfg config.BrowserConfig, logger *zap.Logger) (*Runner, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(float64(cfg.SlowMo.Milliseconds()))
	}
	if cfg.ExecutePath != "" {
		launchOpts.ExecutablePath = playwright.String(cfg.ExecutePath)
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	return &Runner{
		pw:      pw,
		browser: browser,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// OpenPage creates a fresh browser context, opens a page, and navigates
// it to the given URL. The returned cleanup closes both the page and
// its context.
func (r *Runner) OpenPage(url string) (playwright.Page, func(), error) {
	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1920,
			Height: 1080,
		},
	}
	if r.cfg.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(r.cfg.UserAgent)
	}

	browserCtx, err := r.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("creating browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		return nil, nil, fmt.Errorf("creating page: %w", err)
	}

	cleanup := func() {
		page.Close()
		browserCtx.Close()
	}

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(r.cfg.NavTimeout.Milliseconds())),
	}); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("navigating to %s: %w", url, err)
	}

	// Give client-side form frameworks a beat to hydrate.
	page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(r.cfg.NavTimeout.Milliseconds())),
	})

	r.logger.Debug("Page opened", zap.String("url", url))

	return page, cleanup, nil
}

// Close shuts the browser and the driver down.
func (r *Runner) Close() error {
	if r.browser != nil {
		r.browser.Close()
	}
	if r.pw != nil {
		return r.pw.Stop()
	}
	return nil
}
