package web

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/stealth"
)

// BrowserGetter renders pages with a headless Chrome instance, for sites that
// build their content with javascript.
type BrowserGetter struct {
	remote  string
	proxy   string
	timeout time.Duration
}

// NewBrowserGetter returns a browser getter. If remote is set, it connects to
// an existing browser debug address in the format `http://ip:port`,
// otherwise a local headless browser is launched for each page.
func NewBrowserGetter(remote, proxy string, timeout time.Duration) *BrowserGetter {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &BrowserGetter{
		remote:  remote,
		proxy:   proxy,
		timeout: timeout,
	}
}

// Get navigates to the URL and returns the rendered HTML.
func (b *BrowserGetter) Get(ctx context.Context, u string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var cancelAllocator context.CancelFunc
	if b.remote != "" {
		log.Println("web: connecting to browser at", b.remote)
		ctx, cancelAllocator = chromedp.NewRemoteAllocator(ctx, b.remote)
	} else {
		opts := append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoFirstRun,
			chromedp.NoDefaultBrowserCheck,
			chromedp.UserAgent(userAgent),
		)
		if b.proxy != "" {
			opts = append(opts, chromedp.ProxyServer(b.proxy))
		}
		ctx, cancelAllocator = chromedp.NewExecAllocator(ctx, opts...)
	}
	defer cancelAllocator()

	ctx, cancelTab := chromedp.NewContext(ctx)
	defer cancelTab()

	var html string
	if err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealth.JS).Do(ctx)
			return err
		}),
		chromedp.Navigate(u),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("web: couldn't render page: %w", err)
	}
	return html, nil
}
