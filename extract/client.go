// Package extract turns page content into a candidate menu record with a
// language model, retrying transient failures on progressively smaller
// input.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rcbilson/dailymenu/analyze"
	"github.com/rcbilson/dailymenu/llm"
	"github.com/rcbilson/dailymenu/menu"
)

// Content budgets for successive attempts.
var limits = [...]int{6000, 4000, 2000}

const backoffStep = 700 * time.Millisecond

type Request struct {
	Content   string
	Date      string // the query day
	Weekday   string // weekday detected on the page
	SourceURL string
	Markdown  bool // Content is Markdown rather than flattened text
}

type Result struct {
	Record   menu.Candidate
	Usage    llm.Usage
	Attempts int
	// ContentLength is the size, in runes, of the content the model accepted.
	ContentLength int
}

type Extractor interface {
	Extract(ctx context.Context, req Request) (*Result, error)
}

// Generator is the model seen as text in, text out.
type Generator interface {
	Generate(ctx context.Context, prompt string, stats *llm.Usage) (string, error)
}

type GeneratorFunc func(ctx context.Context, prompt string, stats *llm.Usage) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, stats *llm.Usage) (string, error) {
	return f(ctx, prompt, stats)
}

type ParseError struct {
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no valid JSON found in model response: %s", e.Snippet)
}

type Client struct {
	gen         Generator
	maxAttempts int
	timeout     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewClient makes at most min(maxAttempts, 3) model calls per request, each
// bounded by timeout when it is positive.
func NewClient(gen Generator, maxAttempts int, timeout time.Duration) *Client {
	return &Client{gen: gen, maxAttempts: maxAttempts, timeout: timeout, sleep: sleep}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) attempts() int {
	if c.maxAttempts <= 0 || c.maxAttempts > len(limits) {
		return len(limits)
	}
	return c.maxAttempts
}

// IsTransient reports whether a model error is worth retrying.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "504") || strings.Contains(msg, "deadline")
}

func (c *Client) Extract(ctx context.Context, req Request) (*Result, error) {
	attempts := c.attempts()
	var lastErr error
	for i := 0; i < attempts; i++ {
		body := analyze.Truncate(req.Content, limits[i])
		length := utf8.RuneCountInString(body)
		log.Printf("LLM attempt %d/%d: content_len=%d, timeout=%v", i+1, attempts, length, c.timeout)

		record, usage, err := c.attempt(ctx, buildPrompt(req, body), req.Date)
		if err == nil {
			return &Result{Record: record, Usage: usage, Attempts: i + 1, ContentLength: length}, nil
		}
		lastErr = err

		if i == attempts-1 || !IsTransient(err) {
			break
		}
		backoff := time.Duration(i+1) * backoffStep
		log.Printf("LLM transient error, retrying in %v: %v", backoff, err)
		if err := c.sleep(ctx, backoff); err != nil {
			lastErr = err
			break
		}
	}
	return nil, fmt.Errorf("menu extraction failed: %w", lastErr)
}

func (c *Client) attempt(ctx context.Context, prompt, date string) (menu.Candidate, llm.Usage, error) {
	var usage llm.Usage
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	out, err := c.gen.Generate(ctx, prompt, &usage)
	if err != nil {
		return nil, usage, err
	}
	if strings.TrimSpace(out) == "" {
		return nil, usage, errors.New("empty response from model")
	}
	record, err := Parse(out, date)
	return record, usage, err
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Parse decodes a model response into a candidate record. Code fences are
// stripped, and when the response is not JSON as a whole the outermost
// {...} span is tried instead.
func Parse(raw, date string) (menu.Candidate, error) {
	content := stripFences(raw)

	var record menu.Candidate
	if err := json.Unmarshal([]byte(content), &record); err != nil || record == nil {
		span := jsonObject.FindString(content)
		record = nil
		if span == "" || json.Unmarshal([]byte(span), &record) != nil || record == nil {
			return nil, &ParseError{Snippet: analyze.Truncate(content, 200)}
		}
	}
	postProcess(record, date)
	return record, nil
}

// postProcess coerces string prices to crowns and pins the weekday of a
// non-daily menu to the query day.
func postProcess(record menu.Candidate, date string) {
	items, _ := record["menu_items"].([]any)
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := obj["price"].(string); ok {
			if p, ok := menu.NormalizePrice(s); ok {
				obj["price"] = float64(p)
			} else {
				obj["price"] = nil
			}
		}
	}

	if daily, ok := record["daily_menu"].(bool); ok && !daily {
		if wd, err := menu.WeekdayOfDate(date); err == nil {
			log.Printf("setting day_of_week to %s because daily_menu=false", wd)
			record["day_of_week"] = wd
		}
	}
}
