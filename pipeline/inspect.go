package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/rcbilson/dailymenu/analyze"
	"github.com/rcbilson/dailymenu/cache"
	"github.com/rcbilson/dailymenu/menu"
	"github.com/rcbilson/dailymenu/www"
)

// Report describes what the analyzer makes of a page, without calling the
// model or touching the cache.
type Report struct {
	URL               string           `json:"url"`
	FinalURL          string           `json:"final_url"`
	Strategy          string           `json:"strategy"`
	StatusCode        int              `json:"status_code,omitempty"`
	HTMLLength        int              `json:"html_length"`
	MenuTextLength    int              `json:"menu_text_length"`
	CleanedTextLength int              `json:"cleaned_text_length"`
	HTMLMode          bool             `json:"should_use_html_mode"`
	SPAMarkers        []string         `json:"spa_markers"`
	DetectedWeekday   string           `json:"detected_weekday"`
	DateInfo          analyze.DateInfo `json:"date_info"`
	MenuTextPreview   string           `json:"menu_text_preview"`
	CleanedPreview    string           `json:"cleaned_text_preview"`
	MarkdownPreview   string           `json:"markdown_preview,omitempty"`
}

func (p *Pipeline) Inspect(ctx context.Context, rawURL string) (*Report, error) {
	url, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	page, err := p.c.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	a := p.c.Analyzer
	menuText := page.Text
	if menuText == "" {
		menuText = a.MenuText(page.HTML)
	}
	cleaned := a.CleanBodyText(page.HTML, p.c.MaxTextLength)

	report := &Report{
		URL:               url,
		FinalURL:          page.FinalURL,
		Strategy:          page.Strategy,
		StatusCode:        page.StatusCode,
		HTMLLength:        len(page.HTML),
		MenuTextLength:    utf8.RuneCountInString(menuText),
		CleanedTextLength: utf8.RuneCountInString(cleaned),
		HTMLMode:          a.ShouldUseHTMLMode(page.HTML),
		SPAMarkers:        a.SPAMarkers(page.HTML),
		DetectedWeekday:   menu.DetectWeekday(menuText, p.c.Now()),
		DateInfo:          a.ExtractDateInfo(page.HTML),
		MenuTextPreview:   analyze.Truncate(menuText, 1000),
		CleanedPreview:    analyze.Truncate(cleaned, 1500),
	}
	if report.SPAMarkers == nil {
		report.SPAMarkers = []string{}
	}
	if report.HTMLMode {
		md, err := analyze.ToMarkdown(a.MenuFocusedHTML(page.HTML))
		if err != nil {
			log.Printf("markdown preview for %s failed: %v", url, err)
		} else {
			report.MarkdownPreview = analyze.Truncate(md, 1500)
		}
	}
	return report, nil
}

// Compare fetches rawURL statically and with the JS renderer and reports
// the difference.
func (p *Pipeline) Compare(ctx context.Context, rawURL string) (*www.Comparison, error) {
	url, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	return www.Compare(ctx, p.c.Static, p.c.JS, p.c.Analyzer, p.c.MaxTextLength, url)
}

func (p *Pipeline) Stats(ctx context.Context) (cache.Stats, error) {
	return p.c.Store.Stats(ctx, menu.Today(p.c.Now()).Date)
}

func (p *Pipeline) Clear(ctx context.Context) error {
	return p.c.Store.ClearAll(ctx)
}

// Purge drops entries dated before the given YYYY-MM-DD day, or before
// today when before is empty.
func (p *Pipeline) Purge(ctx context.Context, before string) (int64, error) {
	if before == "" {
		before = menu.Today(p.c.Now()).Date
	} else if _, err := time.Parse(time.DateOnly, before); err != nil {
		return 0, &InputError{Reason: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", before)}
	}
	return p.c.Store.PurgeOlderThan(ctx, before)
}
