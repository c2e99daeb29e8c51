package www

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"
)

const (
	maxSelectorWait = 4 * time.Second
	maxExtraWait    = 3 * time.Second
	scrollRounds    = 3
	scrollPause     = 700 * time.Millisecond
)

// Buttons that dismiss cookie and consent dialogs, matched on their text.
var consentTexts = []string{"accept", "accept all", "i agree", "souhlasím", "přijmout", "přijmout vše", "povolit vše", "rozumím"}

var consentSelectors = []string{`[id*="cookie" i] button`, `[class*="cookie" i] button`, `[id*="consent" i] button`}

// Selectors that indicate the page has rendered its content, tried in order.
var contentSelectors = []string{
	`[class*="menu" i], [id*="menu" i]`,
	`main [class*="menu" i]`,
	`#__next`,
	`script#__NEXT_DATA__`,
	`main`,
	`article`,
	`section`,
}

type RenderOptions struct {
	Timeout       time.Duration // navigation
	WaitTimeout   time.Duration // content selectors
	ExtraWait     time.Duration // hydration
	UserAgent     string
	Headless      bool
	MaxConcurrent int
}

// ChromeRenderer is the JS strategy. Every fetch runs in its own browser
// process, and at most MaxConcurrent processes run at once.
type ChromeRenderer struct {
	opts RenderOptions
	sem  *semaphore.Weighted
}

func NewChromeRenderer(opts RenderOptions) *ChromeRenderer {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	return &ChromeRenderer{
		opts: opts,
		sem:  semaphore.NewWeighted(int64(opts.MaxConcurrent)),
	}
}

func consentScript() string {
	texts, _ := json.Marshal(consentTexts)
	selectors, _ := json.Marshal(consentSelectors)
	return fmt.Sprintf(`(() => {
	const texts = %s;
	for (const el of document.querySelectorAll('button, [role="button"], a')) {
		const t = (el.innerText || '').trim().toLowerCase();
		if (texts.includes(t)) { el.click(); return true; }
	}
	for (const sel of %s) {
		const el = document.querySelector(sel);
		if (el) { el.click(); return true; }
	}
	return false;
})()`, texts, selectors)
}

func (r *ChromeRenderer) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, &FetchError{Strategy: StrategyJS, URL: url, Err: err}
	}
	defer r.sem.Release(1)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.opts.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
		chromedp.UserAgent(r.opts.UserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	navCtx, cancelNav := context.WithTimeout(browserCtx, r.opts.Timeout)
	err := chromedp.Run(navCtx, chromedp.Navigate(url))
	cancelNav()
	if err != nil {
		return nil, &FetchError{Strategy: StrategyJS, URL: url, Err: err}
	}

	r.settle(browserCtx, url)

	var html, location string
	err = chromedp.Run(browserCtx,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&location),
	)
	if err != nil {
		return nil, &FetchError{Strategy: StrategyJS, URL: url, Err: err}
	}

	return &FetchResult{
		URL:       url,
		FinalURL:  location,
		HTML:      html,
		FetchedAt: time.Now(),
		Strategy:  StrategyJS,
	}, nil
}

// settle gives the page its best chance to show content. Every step is
// best effort.
func (r *ChromeRenderer) settle(ctx context.Context, url string) {
	var ready bool
	idleCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	_ = chromedp.Run(idleCtx, chromedp.Poll(`document.readyState === "complete"`, &ready))
	cancel()

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(consentScript(), &clicked)); err == nil && clicked {
		log.Printf("dismissed consent dialog on %s", url)
	}

	wait := min(maxSelectorWait, r.opts.WaitTimeout)
	for _, sel := range contentSelectors {
		selCtx, cancel := context.WithTimeout(ctx, wait)
		err := chromedp.Run(selCtx, chromedp.WaitReady(sel, chromedp.ByQuery))
		cancel()
		if err == nil {
			break
		}
	}

	for range scrollRounds {
		err := chromedp.Run(ctx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(scrollPause),
		)
		if err != nil {
			break
		}
	}

	_ = chromedp.Run(ctx, chromedp.Sleep(min(maxExtraWait, r.opts.ExtraWait)))
}
