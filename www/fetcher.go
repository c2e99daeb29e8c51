package www

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	StrategyStatic = "static"
	StrategyJS     = "js"
	StrategyMock   = "mock"
)

const maxBody = 8 << 20

// FetchResult is the outcome of one fetch. It lives only as long as the
// request that produced it.
type FetchResult struct {
	URL        string
	StatusCode int // zero when the strategy cannot observe it
	FinalURL   string
	HTML       string
	Text       string
	FetchedAt  time.Time
	Strategy   string
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (*FetchResult, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	return f(ctx, url)
}

var ErrRendererUnavailable = errors.New("javascript rendering is not available")

type FetchError struct {
	Strategy   string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s fetch of %s failed with status code %d", e.Strategy, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s fetch of %s failed: %v", e.Strategy, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPFetcher is the static strategy: one GET, no script execution.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Strategy: StrategyStatic, URL: url, Err: err}
	}
	// spoof a browser to work around bot detection
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "cs,en-US;q=0.7,en;q=0.3")

	result, err := f.doFetch(req)
	if err != nil {
		return nil, err
	}
	result.URL = url
	return result, nil
}

func (f *HTTPFetcher) doFetch(req *http.Request) (*FetchResult, error) {
	url := req.URL.String()
	res, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Strategy: StrategyStatic, URL: url, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode > 299 {
		log.Printf("%s returned %d, headers:", url, res.StatusCode)
		for k, v := range res.Header {
			log.Println("    ", k, ":", v)
		}
		return nil, &FetchError{Strategy: StrategyStatic, URL: url, StatusCode: res.StatusCode}
	}

	// pages still turn up in windows-1250 and iso-8859-2
	body, err := charset.NewReader(io.LimitReader(res.Body, maxBody), res.Header.Get("Content-Type"))
	if err != nil {
		return nil, &FetchError{Strategy: StrategyStatic, URL: url, StatusCode: res.StatusCode, Err: err}
	}
	html, err := io.ReadAll(body)
	if err != nil {
		return nil, &FetchError{Strategy: StrategyStatic, URL: url, StatusCode: res.StatusCode, Err: err}
	}

	return &FetchResult{
		StatusCode: res.StatusCode,
		FinalURL:   res.Request.URL.String(),
		HTML:       string(html),
		FetchedAt:  time.Now(),
		Strategy:   StrategyStatic,
	}, nil
}

// Unavailable stands in for the JS strategy when no browser can be used.
type Unavailable struct{}

func (Unavailable) Fetch(_ context.Context, url string) (*FetchResult, error) {
	return nil, &FetchError{Strategy: StrategyJS, URL: url, Err: ErrRendererUnavailable}
}
