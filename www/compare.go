package www

import (
	"context"
	"fmt"

	"github.com/rcbilson/dailymenu/analyze"
)

const previewLength = 1500

type Side struct {
	HTMLLength    int    `json:"html_length"`
	CleanedLength int    `json:"cleaned_length"`
	Preview       string `json:"preview"`
}

type Improvement struct {
	HTMLSizeIncrease  int  `json:"html_size_increase"`
	TextSizeIncrease  int  `json:"text_size_increase"`
	JSRenderingHelped bool `json:"js_rendering_helped"`
}

// Comparison reports what JavaScript rendering adds over a static fetch.
type Comparison struct {
	URL         string      `json:"url"`
	Static      Side        `json:"static"`
	SPAMarkers  []string    `json:"spa_markers"`
	JSRendered  Side        `json:"js_rendered"`
	Improvement Improvement `json:"improvement"`
}

// Compare fetches url with both strategies, bypassing escalation.
func Compare(ctx context.Context, static, js Fetcher, analyzer *analyze.Analyzer, maxLength int, url string) (*Comparison, error) {
	s, err := static.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("static fetch: %w", err)
	}
	j, err := js.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("javascript fetch: %w", err)
	}

	sClean := []rune(analyzer.CleanBodyText(s.HTML, maxLength))
	jClean := []rune(analyzer.CleanBodyText(j.HTML, maxLength))

	markers := analyzer.SPAMarkers(s.HTML)
	if markers == nil {
		markers = []string{}
	}
	return &Comparison{
		URL: url,
		Static: Side{
			HTMLLength:    len(s.HTML),
			CleanedLength: len(sClean),
			Preview:       analyze.Truncate(string(sClean), previewLength),
		},
		SPAMarkers: markers,
		JSRendered: Side{
			HTMLLength:    len(j.HTML),
			CleanedLength: len(jClean),
			Preview:       analyze.Truncate(string(jClean), previewLength),
		},
		Improvement: Improvement{
			HTMLSizeIncrease:  len(j.HTML) - len(s.HTML),
			TextSizeIncrease:  len(jClean) - len(sClean),
			JSRenderingHelped: float64(len(jClean)) > float64(len(sClean))*1.5,
		},
	}, nil
}
