package extract

import (
	"context"
	"strings"

	"github.com/rcbilson/dailymenu/menu"
)

// Mock returns a fixed record without calling a model. The restaurant name
// is the first line of content.
type Mock struct{}

func (Mock) Extract(_ context.Context, req Request) (*Result, error) {
	name := "Mock Restaurant"
	for _, line := range strings.Split(req.Content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			name = line
			break
		}
	}

	record := menu.Candidate{
		"restaurant_name": name,
		"date":            req.Date,
		"day_of_week":     req.Weekday,
		"menu_items": []any{
			map[string]any{
				"category":  menu.CategorySoup,
				"name":      "Hovězí vývar s nudlemi",
				"price":     float64(45),
				"allergens": []any{"1", "3", "9"},
				"weight":    "300ml",
			},
			map[string]any{
				"category":  menu.CategoryMain,
				"name":      "Smažený řízek s bramborami",
				"price":     float64(185),
				"allergens": []any{"1", "3"},
				"weight":    "200g",
			},
		},
		"daily_menu": true,
		"source_url": req.SourceURL,
	}
	return &Result{Record: record, Attempts: 1, ContentLength: len([]rune(req.Content))}, nil
}
