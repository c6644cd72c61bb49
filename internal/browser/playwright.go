// Package browser manages the shared Playwright browser session used by
// portals that render their listings client-side.
package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Manager owns the Playwright driver and one headless Chromium instance.
// Close tears both down; contexts created from it die with the browser.
type Manager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewManager starts the Playwright driver and launches headless Chromium.
func NewManager(headless bool) (*Manager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	return &Manager{pw: pw, browser: browser}, nil
}

// NewContext creates a browser context preloaded with the given cookies.
func (m *Manager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	ctx, err := m.browser.NewContext(playwright.BrowserNewContextOptions{
		Locale: playwright.String("de-CH"),
	})
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	if len(cookies) > 0 {
		if err := ctx.AddCookies(cookies); err != nil {
			ctx.Close()
			return nil, fmt.Errorf("add cookies: %w", err)
		}
	}
	return ctx, nil
}

// Close shuts down the browser and the driver.
func (m *Manager) Close() error {
	var firstErr error
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			firstErr = err
		}
	}
	if m.pw != nil {
		if err := m.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
