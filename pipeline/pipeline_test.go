package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/rcbilson/dailymenu/analyze"
	"github.com/rcbilson/dailymenu/cache"
	"github.com/rcbilson/dailymenu/config"
	"github.com/rcbilson/dailymenu/extract"
	"github.com/rcbilson/dailymenu/llm"
	"github.com/rcbilson/dailymenu/menu"
	"github.com/rcbilson/dailymenu/www"
)

// Monday 27 October 2025, late morning in Prague.
var monday = time.Date(2025, 10, 27, 10, 30, 0, 0, menu.Prague)

type countingFetcher struct {
	mu    sync.Mutex
	calls int
	html  string
}

func (f *countingFetcher) Fetch(_ context.Context, url string) (*www.FetchResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	html := f.html
	if html == "" {
		html = www.MockPage(url)
	}
	return &www.FetchResult{URL: url, FinalURL: url, HTML: html, Strategy: www.StrategyStatic}, nil
}

type countingExtractor struct {
	mu      sync.Mutex
	calls   int
	reqs    []extract.Request
	record  string
	usage   llm.Usage
	started chan struct{}
	release chan struct{}
}

func (e *countingExtractor) Extract(_ context.Context, req extract.Request) (*extract.Result, error) {
	e.mu.Lock()
	e.calls++
	e.reqs = append(e.reqs, req)
	e.mu.Unlock()
	if e.started != nil {
		e.started <- struct{}{}
		<-e.release
	}
	record, err := extract.Parse(e.record, req.Date)
	if err != nil {
		return nil, err
	}
	return &extract.Result{Record: record, Usage: e.usage, Attempts: 1, ContentLength: len([]rune(req.Content))}, nil
}

const hradcanyRecord = `{
	"restaurant_name": "Restaurace Hradčany",
	"date": "2025-10-27",
	"day_of_week": "pondělí",
	"menu_items": [
		{"category": "polévka", "name": "Hovězí vývar s nudlemi a zeleninou", "price": "45,-", "allergens": ["1", "3", "9"], "weight": null},
		{"category": "hlavní chod", "name": "Smažený řízek s bramborovou kaší", "price": 185, "allergens": ["1", "3", "7"], "weight": "200g"}
	],
	"daily_menu": true
}`

type fixture struct {
	p         *Pipeline
	fetcher   *countingFetcher
	extractor *countingExtractor
	store     *cache.SQLiteStore
	now       time.Time
}

func setupTest(t *testing.T) *fixture {
	store, err := cache.NewTestSQLiteStore()
	assert.NilError(t, err)
	t.Cleanup(store.Close)

	f := &fixture{
		fetcher:   &countingFetcher{},
		extractor: &countingExtractor{record: hradcanyRecord},
		store:     store,
		now:       monday,
	}
	f.p = New(Components{
		Fetcher:   f.fetcher,
		Extractor: f.extractor,
		Store:     store,
		Usage:     store,
		Now:       func() time.Time { return f.now },
	})
	return f
}

func TestSummarizeIdempotent(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	first, err := f.p.Summarize(ctx, "https://hradcany.cz/menu")
	assert.NilError(t, err)
	assert.Assert(t, !first.Cached)
	assert.Equal(t, "Restaurace Hradčany", first.Data.RestaurantName)
	assert.Equal(t, "2025-10-27", first.Data.Date)
	assert.Equal(t, "https://hradcany.cz/menu", first.Data.SourceURL)
	assert.Equal(t, 45, *first.Data.MenuItems[0].Price)

	second, err := f.p.Summarize(ctx, "https://hradcany.cz/menu")
	assert.NilError(t, err)
	assert.Assert(t, second.Cached)

	a, err := menu.Encode(first.Data)
	assert.NilError(t, err)
	b, err := menu.Encode(second.Data)
	assert.NilError(t, err)
	assert.Equal(t, a, b)

	assert.Equal(t, 1, f.fetcher.calls)
	assert.Equal(t, 1, f.extractor.calls)
}

func TestSummarizeRequest(t *testing.T) {
	f := setupTest(t)
	_, err := f.p.Summarize(context.Background(), "https://hradcany.cz/menu")
	assert.NilError(t, err)

	req := f.extractor.reqs[0]
	assert.Equal(t, "2025-10-27", req.Date)
	// the canned page names a weekday of its own
	assert.Equal(t, "neděle", req.Weekday)
	assert.Equal(t, "https://hradcany.cz/menu", req.SourceURL)
	assert.Assert(t, strings.Contains(req.Content, "Smažený řízek"))
	assert.Assert(t, !strings.Contains(req.Content, "Kontakt"))
	assert.Assert(t, !req.Markdown)
}

func TestSummarizeNormalizesKey(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	_, err := f.p.Summarize(ctx, "  HTTPS://Hradcany.CZ/menu#dnes ")
	assert.NilError(t, err)
	res, err := f.p.Summarize(ctx, "https://hradcany.cz/menu")
	assert.NilError(t, err)
	assert.Assert(t, res.Cached)
	assert.Equal(t, 1, f.extractor.calls)
}

func TestSummarizeDateIsolation(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	_, err := f.p.Summarize(ctx, "https://hradcany.cz/menu")
	assert.NilError(t, err)

	f.now = monday.Add(24 * time.Hour)
	res, err := f.p.Summarize(ctx, "https://hradcany.cz/menu")
	assert.NilError(t, err)
	assert.Assert(t, !res.Cached)
	assert.Equal(t, "2025-10-28", res.Data.Date)
	assert.Equal(t, 2, f.extractor.calls)

	// yesterday's entry was purged on the way
	_, ok, err := f.store.Get(ctx, "https://hradcany.cz/menu", "2025-10-27")
	assert.NilError(t, err)
	assert.Assert(t, !ok)
}

func TestSummarizePragueMidnight(t *testing.T) {
	f := setupTest(t)
	// 23:30 UTC on Monday is already Tuesday in Prague
	f.now = time.Date(2025, 10, 27, 23, 30, 0, 0, time.UTC)
	res, err := f.p.Summarize(context.Background(), "https://hradcany.cz/menu")
	assert.NilError(t, err)
	assert.Equal(t, "2025-10-28", res.Data.Date)
}

func TestSummarizeCorruptedCache(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	assert.NilError(t, f.store.Set(ctx, "https://hradcany.cz/menu", "2025-10-27", `{"test": "data"}`))

	res, err := f.p.Summarize(ctx, "https://hradcany.cz/menu")
	assert.NilError(t, err)
	assert.Assert(t, !res.Cached)
	assert.Equal(t, 1, f.extractor.calls)

	// the recomputed record replaced the corrupted one
	res, err = f.p.Summarize(ctx, "https://hradcany.cz/menu")
	assert.NilError(t, err)
	assert.Assert(t, res.Cached)
}

func TestSummarizeValidationFailure(t *testing.T) {
	f := setupTest(t)
	f.extractor.record = `{"day_of_week": "pondělí", "menu_items": [{"category": "polévka", "name": "", "price": 45}]}`
	ctx := context.Background()

	_, err := f.p.Summarize(ctx, "https://hradcany.cz/menu")
	var verr *menu.ValidationError
	assert.Assert(t, errors.As(err, &verr))

	stats, err := f.store.Stats(ctx, "2025-10-27")
	assert.NilError(t, err)
	assert.Equal(t, int64(0), stats.TotalEntries)
}

func TestSummarizeNotDaily(t *testing.T) {
	f := setupTest(t)
	f.extractor.record = `{"restaurant_name": "Vlasta", "day_of_week": "pátek", "daily_menu": false, "menu_items": []}`

	res, err := f.p.Summarize(context.Background(), "https://vlasta.cz")
	assert.NilError(t, err)
	assert.Assert(t, !res.Data.DailyMenu)
	assert.Equal(t, "pondělí", res.Data.DayOfWeek)
}

func TestSummarizeHugePrice(t *testing.T) {
	f := setupTest(t)
	f.extractor.record = `{"restaurant_name": "Hradčany", "day_of_week": "pondělí", "menu_items": [{"category": "polévka", "name": "Vývar", "price": 1e20}]}`
	ctx := context.Background()

	first, err := f.p.Summarize(ctx, "https://hradcany.cz/menu")
	assert.NilError(t, err)
	assert.Assert(t, first.Data.MenuItems[0].Price == nil)

	second, err := f.p.Summarize(ctx, "https://hradcany.cz/menu")
	assert.NilError(t, err)
	assert.Assert(t, second.Cached)
	assert.Equal(t, 1, f.extractor.calls)
}

func TestSummarizeInputErrors(t *testing.T) {
	f := setupTest(t)
	for _, url := range []string{"", "   ", "hradcany.cz", "ftp://hradcany.cz", "https://"} {
		_, err := f.p.Summarize(context.Background(), url)
		var ierr *InputError
		assert.Assert(t, errors.As(err, &ierr), url)
	}
	assert.Equal(t, 0, f.fetcher.calls)
}

func TestSummarizeEscalates(t *testing.T) {
	store, err := cache.NewTestSQLiteStore()
	assert.NilError(t, err)
	defer store.Close()

	static := &countingFetcher{html: `<html><body><p>Načítání…</p></body></html>`}
	js := &countingFetcher{html: www.MockPage("ujezdu")}
	extractor := &countingExtractor{record: `{"restaurant_name": "U Jezdu", "day_of_week": "středa", "menu_items": []}`}
	p := New(Components{
		Fetcher:   www.NewCombined(static, js, analyze.Default, 0),
		Extractor: extractor,
		Store:     store,
		Now:       func() time.Time { return monday },
	})

	_, err = p.Summarize(context.Background(), "https://ujezdu.cz")
	assert.NilError(t, err)
	assert.Equal(t, 1, static.calls)
	assert.Equal(t, 1, js.calls)
	assert.Assert(t, strings.Contains(extractor.reqs[0].Content, "Svíčková na smetaně"))
	assert.Equal(t, "středa", extractor.reqs[0].Weekday)
}

func TestSummarizeHTMLMode(t *testing.T) {
	f := setupTest(t)
	f.p.c.HTMLMode = true

	_, err := f.p.Summarize(context.Background(), "https://vlasta.cz")
	assert.NilError(t, err)
	req := f.extractor.reqs[0]
	assert.Assert(t, req.Markdown)
	assert.Assert(t, strings.Contains(req.Content, "Kuřecí steak"), req.Content)
	assert.Assert(t, strings.Contains(req.Content, "|"), req.Content)
}

func TestSummarizeSingleFlight(t *testing.T) {
	f := setupTest(t)
	f.extractor.started = make(chan struct{}, 8)
	f.extractor.release = make(chan struct{})

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*menu.Result, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.p.Summarize(context.Background(), "https://hradcany.cz/menu")
		}(i)
	}
	<-f.extractor.started
	time.Sleep(20 * time.Millisecond)
	close(f.extractor.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		assert.NilError(t, errs[i])
		assert.Equal(t, "Restaurace Hradčany", results[i].Data.RestaurantName)
	}
	assert.Equal(t, 1, f.extractor.calls)
}

func TestUsageRecorded(t *testing.T) {
	f := setupTest(t)
	f.extractor.usage = llm.Usage{InputTokens: 1200, OutputTokens: 240}
	ctx := context.Background()

	_, err := f.p.Summarize(ctx, "https://hradcany.cz/menu")
	assert.NilError(t, err)
	_, err = f.p.Summarize(ctx, "https://hradcany.cz/menu")
	assert.NilError(t, err)

	in, out, err := f.store.TotalUsage(ctx)
	assert.NilError(t, err)
	assert.Equal(t, 1200, in)
	assert.Equal(t, 240, out)
}

func TestInspect(t *testing.T) {
	f := setupTest(t)
	report, err := f.p.Inspect(context.Background(), "https://vlasta.cz")
	assert.NilError(t, err)
	assert.Assert(t, report.HTMLMode)
	assert.Assert(t, report.CleanedTextLength > 0)
	assert.Assert(t, report.MenuTextLength > 0)
	assert.Assert(t, strings.Contains(report.MarkdownPreview, "Gulášová polévka"))
	assert.DeepEqual(t, []string{}, report.SPAMarkers)
	assert.Equal(t, 0, f.extractor.calls)
}

func TestPurge(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	assert.NilError(t, f.store.Set(ctx, "https://a.cz", "2025-10-20", `{}`))
	assert.NilError(t, f.store.Set(ctx, "https://a.cz", "2025-10-27", `{}`))

	_, err := f.p.Purge(ctx, "27.10.2025")
	var ierr *InputError
	assert.Assert(t, errors.As(err, &ierr))

	n, err := f.p.Purge(ctx, "")
	assert.NilError(t, err)
	assert.Equal(t, int64(1), n)

	stats, err := f.p.Stats(ctx)
	assert.NilError(t, err)
	assert.Equal(t, int64(1), stats.TodayEntries)

	assert.NilError(t, f.p.Clear(ctx))
	stats, err = f.p.Stats(ctx)
	assert.NilError(t, err)
	assert.Equal(t, int64(0), stats.TotalEntries)
}

func TestFromConfigMock(t *testing.T) {
	cfg := &config.Config{
		UseMock:       true,
		CacheBackend:  "sqlite",
		DbFile:        t.TempDir() + "/menu.db",
		MaxTextLength: 8000,
	}
	p, err := FromConfig(context.Background(), cfg)
	assert.NilError(t, err)
	defer p.Close()

	res, err := p.Summarize(context.Background(), "https://www.restaurace-hradcany.cz")
	assert.NilError(t, err)
	assert.Assert(t, !res.Cached)
	assert.Equal(t, 2, len(res.Data.MenuItems))

	res, err = p.Summarize(context.Background(), "https://www.restaurace-hradcany.cz")
	assert.NilError(t, err)
	assert.Assert(t, res.Cached)
}
