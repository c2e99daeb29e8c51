// Package analyze holds the heuristics that turn an arbitrary restaurant
// page into something an extractor can work with: noise stripping,
// menu-region detection, body text flattening and date hints.
//
// Everything here is a pure function of the HTML string.
package analyze

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/rcbilson/dailymenu/menu"
)

const (
	maxFocusParts   = 3
	focusEnough     = 500
	focusMinText    = 50
	textMinBlock    = 30
	textMinSection  = 50
	fallbackMinText = 15
	fallbackMaxText = 500
	minLine         = 5
)

type Analyzer struct {
	vocab Vocabulary
}

func New(vocab Vocabulary) *Analyzer {
	return &Analyzer{vocab: vocab}
}

// Default analyzes with DefaultVocabulary.
var Default = New(DefaultVocabulary)

// DateInfo collects the date hints found on a page.
type DateInfo struct {
	FoundDates         []string `json:"found_dates"`
	FoundWeekdays      []string `json:"found_weekdays"`
	MenuTypeIndicators []string `json:"menu_type_indicators"`
	MetaDates          []string `json:"meta_dates,omitempty"`
}

func parse(src string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		// only reader errors fail, and a strings.Reader has none
		return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	return doc
}

func hasKeyword(s *goquery.Selection, keyword string) bool {
	for _, attr := range [...]string{"class", "id"} {
		if v, ok := s.Attr(attr); ok && strings.Contains(strings.ToLower(v), keyword) {
			return true
		}
	}
	return false
}

func (r Rule) find(root *goquery.Selection) *goquery.Selection {
	sel := r.Selector
	if sel == "" {
		sel = "*"
	}
	found := root.Find(sel)
	if r.Keyword == "" {
		return found
	}
	return found.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return hasKeyword(s, r.Keyword)
	})
}

func (a *Analyzer) isMenu(s *goquery.Selection) bool {
	for _, k := range a.vocab.MenuKeywords {
		if hasKeyword(s, k) {
			return true
		}
	}
	return false
}

func (a *Analyzer) isNoise(s *goquery.Selection) bool {
	for _, k := range a.vocab.NoiseKeywords {
		if hasKeyword(s, k) {
			return true
		}
	}
	for _, c := range a.vocab.NoiseClasses {
		if s.HasClass(c) {
			return true
		}
	}
	return false
}

func (a *Analyzer) stripNoise(root *goquery.Selection) {
	root.Find(strings.Join(a.vocab.NoiseTags, ", ")).Remove()
	root.Find("[class], [id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return a.isNoise(s)
	}).Remove()
}

// textOf joins the trimmed, non-empty text nodes under s with sep.
func textOf(s *goquery.Selection, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}

// Truncate cuts s to max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}

// ShouldUseHTMLMode reports whether the page's markup carries structure
// (tables, lists, menu containers, prices in cells) that flattening to text
// would lose.
func (a *Analyzer) ShouldUseHTMLMode(src string) bool {
	doc := parse(src)
	if doc.Find("table").Length() > 0 {
		return true
	}
	if doc.Find("ul, ol").Length() > 1 {
		return true
	}
	if doc.Find("[class], [id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return a.isMenu(s)
	}).Length() > 0 {
		return true
	}

	cells := doc.Find("td, li, .price").AddSelection(kw("price").find(doc.Selection))
	priced := false
	cells.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		priced = a.vocab.PricePattern.MatchString(strings.ToLower(s.Text()))
		return !priced
	})
	return priced
}

var (
	manyNewlines    = regexp.MustCompile(`\n{3,}`)
	horizontalSpace = regexp.MustCompile(`[ \t]{2,}`)
)

// CleanBodyText flattens the page body to text, one text node per line,
// after dropping noise tags and cookie, consent and ad containers. The
// result is truncated to maxLength runes.
func (a *Analyzer) CleanBodyText(src string, maxLength int) string {
	doc := parse(src)
	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}
	a.stripNoise(body)

	text := textOf(body, "\n")
	text = manyNewlines.ReplaceAllString(text, "\n\n")
	text = horizontalSpace.ReplaceAllString(text, " ")
	return Truncate(text, maxLength)
}

// ExtractDateInfo mines dates, weekday names and menu-type phrases from the
// page text, <time datetime> attributes and date-like <meta> tags.
func (a *Analyzer) ExtractDateInfo(src string) DateInfo {
	doc := parse(src)
	info := DateInfo{
		FoundDates:         []string{},
		FoundWeekdays:      []string{},
		MenuTypeIndicators: []string{},
	}
	seen := map[string]bool{}
	addDates := func(text string) {
		for _, re := range a.vocab.DatePatterns {
			for _, m := range re.FindAllString(text, -1) {
				if !seen[m] {
					seen[m] = true
					info.FoundDates = append(info.FoundDates, m)
				}
			}
		}
	}

	text := doc.Text()
	addDates(text)

	lower := strings.ToLower(text)
	for _, wd := range menu.Weekdays {
		if strings.Contains(lower, wd) {
			info.FoundWeekdays = append(info.FoundWeekdays, wd)
		}
	}
	for _, ind := range a.vocab.MenuIndicators {
		if strings.Contains(lower, strings.ToLower(ind)) {
			info.MenuTypeIndicators = append(info.MenuTypeIndicators, ind)
		}
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content := s.AttrOr("content", "")
		if content == "" {
			return
		}
		key := strings.ToLower(s.AttrOr("name", "") + " " + s.AttrOr("property", "") + " " + content)
		for _, word := range [...]string{"date", "updated", "modified"} {
			if strings.Contains(key, word) {
				info.MetaDates = append(info.MetaDates, content)
				return
			}
		}
	})

	doc.Find("time[datetime]").Each(func(_ int, s *goquery.Selection) {
		addDates(s.AttrOr("datetime", ""))
	})

	return info
}

// insideAny reports whether n or one of its ancestors was already picked.
func insideAny(n *html.Node, picked []*html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		for _, q := range picked {
			if p == q {
				return true
			}
		}
	}
	return false
}

// MenuFocusedHTML returns a small HTML document holding only the regions
// most likely to contain the menu. When no region qualifies the whole page
// is returned with its chrome stripped.
func (a *Analyzer) MenuFocusedHTML(src string) string {
	doc := parse(src)
	var (
		parts  []string
		picked []*html.Node
		total  int
	)
	for _, rule := range a.vocab.FocusRules {
		rule.find(doc.Selection).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if len(parts) >= maxFocusParts {
				return false
			}
			if insideAny(s.Nodes[0], picked) {
				return true
			}
			if utf8.RuneCountInString(textOf(s, "")) <= focusMinText {
				return true
			}
			s.Find("script, style, nav, footer").Remove()
			h, err := goquery.OuterHtml(s)
			if err != nil {
				return true
			}
			parts = append(parts, h)
			picked = append(picked, s.Nodes[0])
			total += len(h)
			return true
		})
		if total > focusEnough || len(parts) >= maxFocusParts {
			break
		}
	}

	if len(parts) == 0 {
		doc.Find("script, style, nav, header, footer, aside").Remove()
		h, err := doc.Html()
		if err != nil {
			return src
		}
		return h
	}
	return "<html>\n<body>\n" + strings.Join(parts, "\n") + "\n</body>\n</html>\n"
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func (a *Analyzer) isJunk(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range a.vocab.JunkPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// MenuText is the quick text extraction used to judge whether a fetched
// page has real content. It prefers menu-named regions, then page sections,
// then any reasonably sized text block.
func (a *Analyzer) MenuText(src string) string {
	doc := parse(src)
	doc.Find("script, style, nav, header, footer").Remove()

	var blocks []string
	collect := func(sel *goquery.Selection, keep func(string) bool) {
		sel.Each(func(_ int, s *goquery.Selection) {
			if t := textOf(s, " "); keep(t) {
				blocks = append(blocks, t)
			}
		})
	}

	for _, rule := range a.vocab.TextRules {
		collect(rule.find(doc.Selection), func(t string) bool {
			return utf8.RuneCountInString(t) > textMinBlock
		})
		if len(blocks) > 0 {
			break
		}
	}

	if len(blocks) == 0 {
		for _, tag := range [...]string{"main", "article", "section"} {
			collect(doc.Find(tag), func(t string) bool {
				return utf8.RuneCountInString(t) > textMinSection
			})
		}
	}

	if len(blocks) == 0 {
		collect(doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, span, div"), func(t string) bool {
			n := utf8.RuneCountInString(t)
			return n > fallbackMinText && n < fallbackMaxText && hasLetter(t) && !a.isJunk(t)
		})
	}

	return uniqueLines(blocks)
}

func uniqueLines(blocks []string) string {
	seen := make(map[string]bool, len(blocks))
	var lines []string
	for _, b := range blocks {
		line := strings.Join(strings.Fields(b), " ")
		if utf8.RuneCountInString(line) <= minLine || seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// SPAMarkers lists the client-rendering signatures present in the page,
// matched without regard to case.
func (a *Analyzer) SPAMarkers(src string) []string {
	lower := strings.ToLower(src)
	var found []string
	for _, m := range a.vocab.SPAMarkers {
		if strings.Contains(lower, strings.ToLower(m)) {
			found = append(found, m)
		}
	}
	return found
}
