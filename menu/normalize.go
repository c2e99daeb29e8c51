package menu

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	priceJunk   = regexp.MustCompile(`[^\d,.-]`)
	priceNumber = regexp.MustCompile(`(\d+)(?:[,.-]\d*)?`)
)

// NormalizePrice turns a human price such as "145,-" or "120 Kč" into whole
// crowns. Decimals are truncated; text without digits yields false.
func NormalizePrice(text string) (int, bool) {
	if text == "" {
		return 0, false
	}
	cleaned := priceJunk.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",-", "")
	m := priceNumber.FindStringSubmatch(cleaned)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

var (
	weightKg      = regexp.MustCompile(`([\d.]+)\s*kg`)
	weightLitre   = regexp.MustCompile(`([\d.]+)\s*l(?:itr)?`)
	weightGram    = regexp.MustCompile(`(\d+)\s*g`)
	weightMl      = regexp.MustCompile(`(\d+)\s*ml`)
	weightPortion = regexp.MustCompile(`(\d+)\s*(ks|kus|porce|portion)`)
)

// ConvertWeight standardizes a weight or volume: kilograms become grams,
// litres become millilitres, piece counts keep their unit.
func ConvertWeight(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	t := strings.ReplaceAll(strings.ToLower(text), ",", ".")

	if m := weightKg.FindStringSubmatch(t); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return fmt.Sprintf("%dg", int(math.Round(v*1000))), true
		}
	}
	if m := weightLitre.FindStringSubmatch(t); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return fmt.Sprintf("%dml", int(math.Round(v*1000))), true
		}
	}
	if m := weightGram.FindStringSubmatch(t); m != nil {
		return m[1] + "g", true
	}
	if m := weightMl.FindStringSubmatch(t); m != nil {
		return m[1] + "ml", true
	}
	if m := weightPortion.FindStringSubmatch(t); m != nil {
		return m[1] + " " + m[2], true
	}
	return "", false
}

var (
	allergenBrackets = regexp.MustCompile(`[(\[]([0-9,\s]+)[)\]]`)
	allergenLabel    = regexp.MustCompile(`(?:alerg[eěé]ny?:?|allergens?:?)\s*([0-9,\s]+)`)
)

// ExtractAllergens finds allergen codes written as "(1,3,9)", "[1,3]" or
// "alergeny: 1,3,9". The result is deduplicated and sorted.
func ExtractAllergens(text string) []string {
	if text == "" {
		return []string{}
	}
	var codes []string
	for _, m := range allergenBrackets.FindAllStringSubmatch(text, -1) {
		codes = append(codes, splitCodes(m[1])...)
	}
	for _, m := range allergenLabel.FindAllStringSubmatch(strings.ToLower(text), -1) {
		codes = append(codes, splitCodes(m[1])...)
	}
	return uniqueCodes(codes)
}

func splitCodes(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part != "" && isDigits(part) {
			out = append(out, part)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// uniqueCodes deduplicates numeric codes and orders them by value.
func uniqueCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := []string{}
	for _, c := range codes {
		c = strings.TrimLeft(c, "0")
		if c == "" {
			c = "0"
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

var weekdayAbbrevs = [...]string{"po", "út", "st", "čt", "pá", "so", "ne"}

var abbrevPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(weekdayAbbrevs))
	for i, a := range weekdayAbbrevs {
		out[i] = regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + a + `(?:[^\p{L}\p{N}]|$)`)
	}
	return out
}()

// DetectWeekday looks for a Czech weekday in menu text, first as a full
// name and then as a two-letter abbreviation standing on its own. With no
// hit it falls back to the weekday of now in Prague.
func DetectWeekday(text string, now time.Time) string {
	lower := strings.ToLower(text)
	for _, wd := range Weekdays {
		if strings.Contains(lower, wd) {
			return wd
		}
	}
	for i, re := range abbrevPatterns {
		if re.MatchString(lower) {
			return Weekdays[i]
		}
	}
	return Today(now).Weekday
}

var weekdayAliases = map[string]string{
	"pondeli": "pondělí", "utery": "úterý", "streda": "středa", "ctvrtek": "čtvrtek",
	"patek": "pátek", "nedele": "neděle",
	"monday": "pondělí", "tuesday": "úterý", "wednesday": "středa", "thursday": "čtvrtek",
	"friday": "pátek", "saturday": "sobota", "sunday": "neděle",
}

// ResolveWeekday maps a weekday label onto one of the seven Czech names.
func ResolveWeekday(label string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	for i, wd := range Weekdays {
		if l == wd || l == weekdayAbbrevs[i] {
			return wd, true
		}
	}
	wd, ok := weekdayAliases[l]
	return wd, ok
}

var categoryAliases = map[string]string{
	"soup": CategorySoup, "polévky": CategorySoup, "polevka": CategorySoup,
	"main": CategoryMain, "main course": CategoryMain, "hlavní jídlo": CategoryMain, "hlavni chod": CategoryMain,
	"salad": CategorySalad, "salaty": CategorySalad, "saláty": CategorySalad,
	"dessert": CategoryDessert, "dezerty": CategoryDessert,
	"drink": CategoryDrink, "nápoje": CategoryDrink, "napoj": CategoryDrink,
	"side": CategorySide, "přílohy": CategorySide, "priloha": CategorySide,
}

// NormalizeCategory folds known aliases onto the prompt taxonomy and leaves
// anything else as lowercase free text.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if canon, ok := categoryAliases[c]; ok {
		return canon
	}
	return c
}
