package execution

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/autofill-agent/internal/types"
)

// fillTimeout bounds a single control write so one hung selector cannot
// stall the whole scan.
const fillTimeout = 10 * time.Second

// BrowserExecutor fills controls in a live headless-browser tab.
// Requires Chrome/Chromium to be installed on the system.
type BrowserExecutor struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	verbose    bool
}

// NewBrowserExecutor starts a headless browser and navigates to the form URL.
func NewBrowserExecutor(ctx context.Context, url string, verbose bool) (*BrowserExecutor, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	if err := chromedp.Run(browserCtx, chromedp.Navigate(url)); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open form page: %w", err)
	}

	return &BrowserExecutor{browserCtx: browserCtx, cancel: cancel, verbose: verbose}, nil
}

// Close shuts the browser down.
func (b *BrowserExecutor) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// Fill writes a value into the control identified by selector, choosing
// the interaction by control type: clicks for checkboxes and radios,
// option selection for selects, keystroke value entry otherwise.
func (b *BrowserExecutor) Fill(ctx context.Context, selector, value string, _ float64, meta types.Field) (bool, error) {
	runCtx, cancel := context.WithTimeout(b.browserCtx, fillTimeout)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var dcancel context.CancelFunc
		runCtx, dcancel = context.WithDeadline(runCtx, deadline)
		defer dcancel()
	}

	var action chromedp.Action
	switch meta.Type {
	case types.TypeCheckbox, types.TypeRadio:
		action = chromedp.Click(selector, chromedp.ByQuery)
	case types.TypeSelect, types.TypeMultiSelect:
		action = chromedp.SetValue(selector, value, chromedp.ByQuery)
	default:
		action = chromedp.Tasks{
			chromedp.Clear(selector, chromedp.ByQuery),
			chromedp.SendKeys(selector, value, chromedp.ByQuery),
		}
	}

	if err := chromedp.Run(runCtx, action); err != nil {
		if b.verbose {
			log.Printf("[BROWSER] fill failed for %s: %v", selector, err)
		}
		return false, nil
	}
	return true, nil
}
