package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/rcbilson/dailymenu/llm"
	"github.com/rcbilson/dailymenu/menu"
)

type step struct {
	out string
	err error
}

type scripted struct {
	steps   []step
	prompts []string
}

func (s *scripted) Generate(ctx context.Context, prompt string, stats *llm.Usage) (string, error) {
	s.prompts = append(s.prompts, prompt)
	st := s.steps[len(s.prompts)-1]
	if stats != nil {
		*stats = llm.Usage{InputTokens: len(prompt), OutputTokens: len(st.out)}
	}
	return st.out, st.err
}

func newTestClient(gen Generator, maxAttempts int) (*Client, *[]time.Duration) {
	c := NewClient(gen, maxAttempts, 0)
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

var testRequest = Request{
	Content:   "Restaurace U Jezdu\nBramborová polévka 48,-",
	Date:      "2025-10-29",
	Weekday:   "středa",
	SourceURL: "https://ujezdu.cz",
}

const goodReply = "```json\n" + `{
	"restaurant_name": "Restaurace U Jezdu",
	"date": "2025-10-29",
	"day_of_week": "středa",
	"menu_items": [{"category": "polévka", "name": "Bramborová polévka", "price": "48,-", "allergens": []}],
	"daily_menu": true,
	"source_url": "https://ujezdu.cz"
}` + "\n```"

func TestExtract(t *testing.T) {
	gen := &scripted{steps: []step{{out: goodReply}}}
	c, slept := newTestClient(gen, 3)

	res, err := c.Extract(context.Background(), testRequest)
	assert.NilError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 0, len(*slept))
	assert.Equal(t, "Restaurace U Jezdu", res.Record["restaurant_name"])
	assert.Assert(t, res.Usage.InputTokens > 0)

	item := res.Record["menu_items"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(48), item["price"])

	prompt := gen.prompts[0]
	assert.Assert(t, strings.Contains(prompt, "Today's date: 2025-10-29"))
	assert.Assert(t, strings.Contains(prompt, "Day of week: středa"))
	assert.Assert(t, strings.HasSuffix(prompt, testRequest.Content))
}

func TestExtractShrinksOnTimeout(t *testing.T) {
	gen := &scripted{steps: []step{
		{err: errors.New("request timeout")},
		{err: errors.New("504 Gateway Timeout")},
		{out: goodReply},
	}}
	c, slept := newTestClient(gen, 3)

	req := testRequest
	req.Content = strings.Repeat("ž", 7000)
	res, err := c.Extract(context.Background(), req)
	assert.NilError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 2000, res.ContentLength-3)
	assert.DeepEqual(t, []time.Duration{700 * time.Millisecond, 1400 * time.Millisecond}, *slept)

	for i, limit := range []int{6000, 4000, 2000} {
		assert.Assert(t, strings.HasSuffix(gen.prompts[i], "\n\n"+strings.Repeat("ž", limit)+"..."), limit)
	}
}

func TestExtractFatalError(t *testing.T) {
	denied := errors.New("AccessDeniedException: not authorized")
	gen := &scripted{steps: []step{{err: denied}}}
	c, slept := newTestClient(gen, 3)

	_, err := c.Extract(context.Background(), testRequest)
	assert.ErrorContains(t, err, "menu extraction failed")
	assert.Assert(t, errors.Is(err, denied))
	assert.Equal(t, 1, len(gen.prompts))
	assert.Equal(t, 0, len(*slept))
}

func TestExtractExhausted(t *testing.T) {
	last := errors.New("deadline exceeded on attempt 3")
	gen := &scripted{steps: []step{
		{err: errors.New("timeout")},
		{err: errors.New("timeout")},
		{err: last},
	}}
	c, slept := newTestClient(gen, 3)

	_, err := c.Extract(context.Background(), testRequest)
	assert.Assert(t, errors.Is(err, last))
	assert.Equal(t, 3, len(gen.prompts))
	assert.Equal(t, 2, len(*slept))
}

func TestAttemptCap(t *testing.T) {
	for maxAttempts, want := range map[int]int{0: 3, 1: 1, 2: 2, 10: 3} {
		steps := []step{{err: errors.New("timeout")}, {err: errors.New("timeout")}, {err: errors.New("timeout")}}
		gen := &scripted{steps: steps}
		c, _ := newTestClient(gen, maxAttempts)
		_, err := c.Extract(context.Background(), testRequest)
		assert.Assert(t, err != nil)
		assert.Equal(t, want, len(gen.prompts), maxAttempts)
	}
}

func TestExtractCallTimeout(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, _ string, _ *llm.Usage) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	c := NewClient(gen, 2, 5*time.Millisecond)
	c.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := c.Extract(context.Background(), testRequest)
	assert.Assert(t, errors.Is(err, context.DeadlineExceeded))
}

func TestParseRecovery(t *testing.T) {
	record, err := Parse(`Here is the menu: {"day_of_week": "úterý", "menu_items": []} Enjoy!`, "2025-10-28")
	assert.NilError(t, err)
	assert.Equal(t, "úterý", record["day_of_week"])

	_, err = Parse("Sorry, I cannot find a menu.", "2025-10-28")
	var perr *ParseError
	assert.Assert(t, errors.As(err, &perr))

	_, err = Parse(`[1, 2]`, "2025-10-28")
	assert.Assert(t, errors.As(err, &perr))
}

func TestParseErrorNotRetried(t *testing.T) {
	gen := &scripted{steps: []step{{out: "no json here"}, {out: goodReply}}}
	c, _ := newTestClient(gen, 3)
	_, err := c.Extract(context.Background(), testRequest)
	var perr *ParseError
	assert.Assert(t, errors.As(err, &perr))
	assert.Equal(t, 1, len(gen.prompts))
}

func TestNotDailyPinsWeekday(t *testing.T) {
	// 2025-10-29 is a Wednesday
	record, err := Parse(`{"day_of_week": "pátek", "daily_menu": false, "menu_items": [{"name": "Guláš", "price": "zdarma"}]}`, "2025-10-29")
	assert.NilError(t, err)
	assert.Equal(t, "středa", record["day_of_week"])
	item := record["menu_items"].([]any)[0].(map[string]any)
	assert.Assert(t, item["price"] == nil)
}

func TestMock(t *testing.T) {
	res, err := Mock{}.Extract(context.Background(), testRequest)
	assert.NilError(t, err)

	data, err := menu.FromCandidate(res.Record, menu.Query{
		URL: testRequest.SourceURL,
		Day: menu.Day{Date: testRequest.Date, Weekday: testRequest.Weekday},
	})
	assert.NilError(t, err)
	assert.Equal(t, "Restaurace U Jezdu", data.RestaurantName)
	assert.Equal(t, 2, len(data.MenuItems))
	assert.Equal(t, 45, *data.MenuItems[0].Price)
}

type fakeLlm struct {
	llm.Context
	reply string
}

func (f *fakeLlm) Converse(_ context.Context, _ *llm.ConversationBuilder, stats *llm.Usage) (string, error) {
	*stats = llm.Usage{InputTokens: 10, OutputTokens: 5}
	return f.reply, nil
}

func TestBedrockGenerator(t *testing.T) {
	client := &fakeLlm{Context: llm.Context{ModelID: "test"}, reply: `"day_of_week": "pondělí", "menu_items": []}`}
	gen := NewGenerator(client, NovaLite)

	var usage llm.Usage
	out, err := gen.Generate(context.Background(), "prompt", &usage)
	assert.NilError(t, err)
	assert.Equal(t, `{"day_of_week": "pondělí", "menu_items": []}`, out)
	assert.Equal(t, 10, usage.InputTokens)
}
