package menu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Prices above maxPrice are treated as unknown.
const maxPrice = math.MaxInt32

// Candidate is a decoded but unchecked extraction result.
type Candidate map[string]any

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid menu record: %s %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Query describes the request a candidate is validated against.
type Query struct {
	URL string
	Day Day
}

// FromCandidate checks a candidate record and builds the MenuData it
// describes. The date is always the query day, and a record that is not a
// daily menu always carries the query day's weekday.
func FromCandidate(c Candidate, q Query) (*MenuData, error) {
	data := &MenuData{
		RestaurantName: UnknownRestaurant,
		Date:           q.Day.Date,
		DailyMenu:      true,
		SourceURL:      q.URL,
		MenuItems:      []MenuItem{},
	}

	switch v := c["restaurant_name"].(type) {
	case nil:
	case string:
		if name := strings.TrimSpace(v); name != "" {
			data.RestaurantName = name
		}
	default:
		return nil, invalid("restaurant_name", "must be a string, got %T", v)
	}

	switch v := c["daily_menu"].(type) {
	case nil:
	case bool:
		data.DailyMenu = v
	default:
		return nil, invalid("daily_menu", "must be a boolean, got %T", v)
	}

	if data.DailyMenu {
		label, ok := c["day_of_week"].(string)
		if !ok {
			return nil, invalid("day_of_week", "is required")
		}
		day, ok := ResolveWeekday(label)
		if !ok {
			return nil, invalid("day_of_week", "%q is not a weekday", label)
		}
		data.DayOfWeek = day
	} else {
		// the page label is not trusted for a standing menu
		data.DayOfWeek = q.Day.Weekday
	}

	if v, ok := c["source_url"].(string); ok && strings.TrimSpace(v) != "" {
		data.SourceURL = strings.TrimSpace(v)
	}

	rawItems, ok := c["menu_items"]
	if !ok || rawItems == nil {
		return nil, invalid("menu_items", "is required")
	}
	items, ok := rawItems.([]any)
	if !ok {
		return nil, invalid("menu_items", "must be an array, got %T", rawItems)
	}
	for i, raw := range items {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, invalid(fmt.Sprintf("menu_items[%d]", i), "must be an object")
		}
		item, err := itemFromCandidate(obj, fmt.Sprintf("menu_items[%d].", i))
		if err != nil {
			return nil, err
		}
		data.MenuItems = append(data.MenuItems, item)
	}

	return data, nil
}

func itemFromCandidate(obj map[string]any, prefix string) (MenuItem, error) {
	var item MenuItem

	category, _ := obj["category"].(string)
	item.Category = NormalizeCategory(category)
	if item.Category == "" {
		return item, invalid(prefix+"category", "is required")
	}

	name, _ := obj["name"].(string)
	item.Name = strings.TrimSpace(name)
	if item.Name == "" {
		return item, invalid(prefix+"name", "is required")
	}

	switch v := obj["price"].(type) {
	case nil:
	case float64:
		if v < 0 {
			return item, invalid(prefix+"price", "must not be negative")
		}
		if v <= maxPrice {
			p := int(v)
			item.Price = &p
		}
	case string:
		if p, ok := NormalizePrice(v); ok && p <= maxPrice {
			item.Price = &p
		}
	default:
		return item, invalid(prefix+"price", "must be a number, got %T", v)
	}

	item.Allergens = []string{}
	switch v := obj["allergens"].(type) {
	case nil:
	case []any:
		var codes []string
		for _, a := range v {
			switch code := a.(type) {
			case string:
				codes = append(codes, splitCodes(code)...)
			case float64:
				codes = append(codes, strconv.Itoa(int(code)))
			default:
				return item, invalid(prefix+"allergens", "must hold strings, got %T", a)
			}
		}
		item.Allergens = uniqueCodes(codes)
	default:
		return item, invalid(prefix+"allergens", "must be an array, got %T", v)
	}

	switch v := obj["weight"].(type) {
	case nil:
	case string:
		w := strings.TrimSpace(v)
		if std, ok := ConvertWeight(w); ok {
			w = std
		}
		if w != "" {
			item.Weight = &w
		}
	default:
		return item, invalid(prefix+"weight", "must be a string, got %T", v)
	}

	return item, nil
}

// Validate checks the invariants of a record read back from storage.
func (m *MenuData) Validate() error {
	if _, err := time.Parse(time.DateOnly, m.Date); err != nil {
		return invalid("date", "%q is not an ISO date", m.Date)
	}
	if _, ok := ResolveWeekday(m.DayOfWeek); !ok {
		return invalid("day_of_week", "%q is not a weekday", m.DayOfWeek)
	}
	if m.MenuItems == nil {
		return invalid("menu_items", "is required")
	}
	for i, item := range m.MenuItems {
		if item.Name == "" {
			return invalid(fmt.Sprintf("menu_items[%d].name", i), "is required")
		}
		if item.Price != nil && *item.Price < 0 {
			return invalid(fmt.Sprintf("menu_items[%d].price", i), "must not be negative")
		}
	}
	return nil
}

// Decode parses a stored payload back into a record.
func Decode(payload string) (*MenuData, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.DisallowUnknownFields()
	var m MenuData
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode serializes a record for storage.
func Encode(m *MenuData) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
