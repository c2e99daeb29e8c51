// Package pipeline answers "what is on the menu today" for a restaurant
// URL: cache lookup, fetch, extraction, validation and storage, once per
// URL and Prague calendar day.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rcbilson/dailymenu/analyze"
	"github.com/rcbilson/dailymenu/cache"
	"github.com/rcbilson/dailymenu/extract"
	"github.com/rcbilson/dailymenu/menu"
	"github.com/rcbilson/dailymenu/www"
)

// Components are the collaborators a Pipeline drives. Usage and the Static
// and JS fetchers are optional.
type Components struct {
	Fetcher   www.Fetcher
	Static    www.Fetcher
	JS        www.Fetcher
	Analyzer  *analyze.Analyzer
	Extractor extract.Extractor
	Store     cache.Store
	Usage     cache.UsageRecorder

	MaxTextLength int
	HTMLMode      bool
	Now           func() time.Time
}

type Pipeline struct {
	c     Components
	group singleflight.Group
}

func New(c Components) *Pipeline {
	if c.Analyzer == nil {
		c.Analyzer = analyze.Default
	}
	if c.MaxTextLength <= 0 {
		c.MaxTextLength = 8000
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Static == nil {
		c.Static = c.Fetcher
	}
	if c.JS == nil {
		c.JS = www.Unavailable{}
	}
	return &Pipeline{c: c}
}

func (p *Pipeline) Close() {
	p.c.Store.Close()
}

// Summarize returns today's menu for rawURL, computing and caching it on
// the first request of the day.
func (p *Pipeline) Summarize(ctx context.Context, rawURL string) (*menu.Result, error) {
	url, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	now := p.c.Now()
	day := menu.Today(now)

	if n, err := p.c.Store.PurgeOlderThan(ctx, day.Date); err != nil {
		log.Printf("cache purge before %s failed: %v", day.Date, err)
	} else if n > 0 {
		log.Printf("purged %d cache entries older than %s", n, day.Date)
	}

	if data, ok := p.lookup(ctx, url, day.Date); ok {
		log.Printf("CACHE HIT: %s (%s)", url, day.Date)
		return &menu.Result{Cached: true, Data: data}, nil
	}

	v, err, shared := p.group.Do(url+"|"+day.Date, func() (any, error) {
		// an earlier flight may have finished between lookup and Do
		if data, ok := p.lookup(ctx, url, day.Date); ok {
			return &menu.Result{Cached: true, Data: data}, nil
		}
		data, err := p.compute(ctx, url, day, now)
		if err != nil {
			return nil, err
		}
		return &menu.Result{Cached: false, Data: data}, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("shared in-flight computation for %s", url)
	}
	res := *v.(*menu.Result)
	return &res, nil
}

func (p *Pipeline) lookup(ctx context.Context, url, date string) (*menu.MenuData, bool) {
	payload, ok, err := p.c.Store.Get(ctx, url, date)
	if err != nil {
		log.Printf("cache lookup for %s failed: %v", url, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	data, err := menu.Decode(payload)
	if err != nil {
		log.Printf("ignoring corrupted cache entry for %s (%s): %v", url, date, err)
		return nil, false
	}
	return data, true
}

func (p *Pipeline) compute(ctx context.Context, url string, day menu.Day, now time.Time) (*menu.MenuData, error) {
	log.Printf("CACHE MISS: %s (%s)", url, day.Date)
	page, err := p.c.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	menuText := page.Text
	if menuText == "" {
		menuText = p.c.Analyzer.MenuText(page.HTML)
	}
	content := p.c.Analyzer.CleanBodyText(page.HTML, p.c.MaxTextLength)
	if strings.TrimSpace(content) == "" {
		content = analyze.Truncate(menuText, p.c.MaxTextLength)
	}

	req := extract.Request{
		Content:   content,
		Date:      day.Date,
		Weekday:   menu.DetectWeekday(menuText, now),
		SourceURL: url,
	}
	if p.c.HTMLMode && p.c.Analyzer.ShouldUseHTMLMode(page.HTML) {
		md, err := analyze.ToMarkdown(p.c.Analyzer.MenuFocusedHTML(page.HTML))
		if err != nil {
			log.Printf("HTML mode conversion for %s failed, using text: %v", url, err)
		} else if strings.TrimSpace(md) != "" {
			req.Content = analyze.Truncate(md, p.c.MaxTextLength)
			req.Markdown = true
		}
	}
	log.Printf("extracting %s via %s fetch: %d chars, weekday %s, markdown=%v",
		url, page.Strategy, len([]rune(req.Content)), req.Weekday, req.Markdown)

	out, err := p.c.Extractor.Extract(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := menu.FromCandidate(out.Record, menu.Query{URL: url, Day: day})
	if err != nil {
		log.Printf("validation failed for %s: %v", url, err)
		return nil, fmt.Errorf("invalid menu record: %w", err)
	}

	payload, err := menu.Encode(data)
	if err != nil {
		return nil, err
	}
	if err := p.c.Store.Set(ctx, url, day.Date, payload); err != nil {
		log.Printf("caching %s failed: %v", url, err)
	}
	if p.c.Usage != nil && (out.Usage.InputTokens > 0 || out.Usage.OutputTokens > 0) {
		usage := cache.Usage{
			Url:       url,
			LengthIn:  out.ContentLength,
			LengthOut: len(payload),
			TokensIn:  out.Usage.InputTokens,
			TokensOut: out.Usage.OutputTokens,
		}
		if err := p.c.Usage.RecordUsage(ctx, usage); err != nil {
			log.Printf("recording usage for %s failed: %v", url, err)
		}
	}
	return data, nil
}
