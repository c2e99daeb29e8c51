package analyze

import "regexp"

// Rule selects candidate elements. Selector is a CSS selector ("*" when
// empty); Keyword, when set, further requires the element's class or id to
// contain it, ignoring case.
type Rule struct {
	Selector string
	Keyword  string
}

func kw(keyword string) Rule  { return Rule{Keyword: keyword} }
func css(selector string) Rule { return Rule{Selector: selector} }

// Vocabulary holds the site-tuning data the analyzer works from. Sites
// differ enough that these lists are expected to grow.
type Vocabulary struct {
	// MenuKeywords mark an element as menu structure.
	MenuKeywords []string
	// NoiseTags are dropped before text is flattened.
	NoiseTags []string
	// NoiseKeywords drop elements whose class or id contains them.
	NoiseKeywords []string
	// NoiseClasses drop elements carrying exactly one of these classes.
	NoiseClasses []string
	// FocusRules select regions for menu-focused HTML, in priority order.
	FocusRules []Rule
	// TextRules select regions for the menu-text heuristic, in priority order.
	TextRules []Rule
	// JunkPrefixes disqualify fallback text blocks.
	JunkPrefixes []string
	// MenuIndicators are phrases naming the kind of menu on a page.
	MenuIndicators []string
	// SPAMarkers betray a page rendered client-side.
	SPAMarkers []string
	// DatePatterns recognize dates in page text.
	DatePatterns []*regexp.Regexp
	// PricePattern recognizes a price written next to a dish.
	PricePattern *regexp.Regexp
}

var DefaultVocabulary = Vocabulary{
	MenuKeywords: []string{"menu", "jidlo", "jidelni", "denni", "poledni"},
	NoiseTags: []string{
		"script", "style", "nav", "header", "footer", "aside", "noscript",
		"svg", "canvas", "iframe", "link", "meta", "form", "picture",
		"source", "video", "audio", "button", "input", "select", "textarea",
		"dialog",
	},
	NoiseKeywords: []string{"cookie", "consent", "gdpr", "advert", "banner"},
	NoiseClasses:  []string{"social", "share", "newsletter", "breadcrumbs", "breadcrumb"},
	FocusRules: []Rule{
		kw("menu"), kw("jidelni"), kw("denni"), kw("poledni"), kw("daily"),
		css("main"), css("article"), {Selector: "section", Keyword: "content"},
		css(".content"), css("#content"), css(".main-content"),
		css(".container"), css(".wrapper"),
	},
	TextRules: []Rule{
		kw("menu"), kw("jidlo"), kw("jidelni"), kw("listek"), kw("dnes"),
		kw("denni"), kw("poledni"), kw("dnesni"),
		kw("daily"), kw("lunch"), kw("food"), kw("dish"),
		css(".content"), css(".main"), css(".main-content"),
		css("#content"), css("#main"), css("#main-content"),
		css(".container"), css(".wrapper"), css(".page-content"),
	},
	JunkPrefixes: []string{"cookie", "gdpr", "consent", "terms", "privacy"},
	MenuIndicators: []string{
		"denní menu", "daily menu", "menu dne", "dnes",
		"polední menu", "lunch menu", "týdenní menu",
		"jídelní lístek", "menu na",
	},
	SPAMarkers: []string{`id="__next"`, "__NEXT_DATA__", "data-reactroot", "window.__NUXT__", "ng-version"},
	DatePatterns: []*regexp.Regexp{
		regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`), // DD.MM.YYYY
		regexp.MustCompile(`\d{1,2}\.\d{1,2}\.?`),     // DD.MM.
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),       // YYYY-MM-DD
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),   // DD/MM/YYYY
	},
	PricePattern: regexp.MustCompile(`\d+[.,]?-?\s*(?:kč|czk|,-)`),
}
