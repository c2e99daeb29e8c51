package pipeline

import (
	"context"
	"log"

	"github.com/rcbilson/dailymenu/analyze"
	"github.com/rcbilson/dailymenu/cache"
	"github.com/rcbilson/dailymenu/config"
	"github.com/rcbilson/dailymenu/extract"
	"github.com/rcbilson/dailymenu/llm"
	"github.com/rcbilson/dailymenu/www"
)

func openStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	if cfg.CacheBackend == "redis" {
		return cache.NewRedisStore(ctx, cfg.RedisAddr, cfg.CacheTTL)
	}
	return cache.NewSQLiteStore(cfg.DbFile)
}

// FromConfig assembles the production pipeline, or the mock one when
// cfg.UseMock is set.
func FromConfig(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := Components{
		Analyzer:      analyze.Default,
		Store:         store,
		MaxTextLength: cfg.MaxTextLength,
		HTMLMode:      cfg.HTMLMode,
	}
	if u, ok := store.(cache.UsageRecorder); ok {
		c.Usage = u
	}

	if cfg.UseMock {
		log.Println("mock mode: canned pages and extraction")
		c.Fetcher = www.MockFetcher{}
		c.JS = www.MockFetcher{}
		c.Extractor = extract.Mock{}
		return New(c), nil
	}

	static := www.NewHTTPFetcher(cfg.RequestTimeout, cfg.UserAgent)
	var js www.Fetcher = www.Unavailable{}
	if cfg.JSEnabled {
		js = www.NewChromeRenderer(www.RenderOptions{
			Timeout:       cfg.RequestTimeout,
			WaitTimeout:   cfg.JSWaitTimeout,
			ExtraWait:     cfg.JSExtraWait,
			UserAgent:     cfg.UserAgent,
			Headless:      cfg.Headless,
			MaxConcurrent: cfg.MaxConcurrentRenders,
		})
	}
	c.Static = static
	c.JS = js
	c.Fetcher = www.NewCombined(static, js, c.Analyzer, cfg.MinTextLength)

	params := extract.NovaLite
	params.Params = llm.Params{Region: cfg.LlmRegion, ModelID: cfg.LlmModelID}
	client, err := llm.New(ctx, params.Params)
	if err != nil {
		store.Close()
		return nil, err
	}
	c.Extractor = extract.NewClient(extract.NewGenerator(client, params), cfg.LlmMaxAttempts, cfg.LlmTimeout)
	return New(c), nil
}
