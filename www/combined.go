package www

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/rcbilson/dailymenu/analyze"
)

const DefaultMinTextLength = 150

// Combined tries the static strategy first and escalates to JavaScript
// rendering when the static page looks empty or client-rendered.
type Combined struct {
	Static        Fetcher
	JS            Fetcher
	Analyzer      *analyze.Analyzer
	MinTextLength int
}

func NewCombined(static, js Fetcher, analyzer *analyze.Analyzer, minTextLength int) *Combined {
	if minTextLength <= 0 {
		minTextLength = DefaultMinTextLength
	}
	return &Combined{Static: static, JS: js, Analyzer: analyzer, MinTextLength: minTextLength}
}

func (c *Combined) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	static, err := c.Static.Fetch(ctx, url)
	if err != nil {
		log.Printf("static request for %s failed: %v, trying JavaScript rendering", url, err)
		rendered, jsErr := c.render(ctx, url)
		if jsErr != nil {
			return nil, fmt.Errorf("both static and JavaScript fetching failed: %w", errors.Join(err, jsErr))
		}
		return rendered, nil
	}

	static.Text = c.Analyzer.MenuText(static.HTML)
	length := utf8.RuneCountInString(strings.TrimSpace(static.Text))
	markers := c.Analyzer.SPAMarkers(static.HTML)
	if length >= c.MinTextLength && len(markers) == 0 {
		return static, nil
	}

	reason := fmt.Sprintf("%d chars", length)
	if len(markers) > 0 {
		reason += " + SPA markers"
	}
	log.Printf("static content of %s insufficient (%s), trying JavaScript rendering", url, reason)
	rendered, err := c.render(ctx, url)
	if err != nil {
		log.Printf("JavaScript rendering of %s failed: %v, using static content", url, err)
		return static, nil
	}
	return rendered, nil
}

func (c *Combined) render(ctx context.Context, url string) (*FetchResult, error) {
	res, err := c.JS.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	res.Text = c.Analyzer.MenuText(res.HTML)
	return res, nil
}
