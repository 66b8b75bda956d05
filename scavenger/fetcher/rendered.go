package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// DefaultWait caps every wait for a page element.
const DefaultWait = 10 * time.Second

// Rendered fetches pages with a headless Chrome. Script execution is disabled, which hides
// paywalls injected on the client while still exposing the server-rendered markup.
//
// Every Fetch owns its own browser and closes it before returning.
type Rendered struct {
	execPath string
	wait     time.Duration
}

// NewRendered creates a Rendered fetcher using the Chrome found in PATH.
func NewRendered() *Rendered {
	return &Rendered{wait: DefaultWait}
}

// WithExecPath sets the Chrome binary to use.
func (r *Rendered) WithExecPath(path string) *Rendered {
	r.execPath = path
	return r
}

// WithWait sets the maximum time to wait for the ready element. Non-positive values keep the default.
func (r *Rendered) WithWait(d time.Duration) *Rendered {
	if d > 0 {
		r.wait = d
	}
	return r
}

// Wait returns the element wait cap.
func (r *Rendered) Wait() time.Duration {
	return r.wait
}

func (r *Rendered) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "scriptEnabled=false"),
		chromedp.UserAgent(DefaultUserAgent),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}
	return opts
}

// Fetch navigates to url, waits up to the wait cap for the ready selector and returns the page markup.
// An empty ready selector waits for the body. A wait that runs out is an ordinary fetch error.
func (r *Rendered) Fetch(ctx context.Context, url, ready string) (string, error) {
	if ready == "" {
		ready = "body"
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	waitCtx, cancelWait := context.WithTimeout(browserCtx, r.wait)
	defer cancelWait()

	var markup string
	err := chromedp.Run(waitCtx,
		emulation.SetScriptExecutionDisabled(true),
		chromedp.Navigate(url),
		chromedp.WaitReady(ready, chromedp.ByQuery),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		return "", errors.Join(errRenderSession, err)
	}

	return markup, nil
}
