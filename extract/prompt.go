package extract

import (
	"strings"
	"text/template"
)

var promptTemplate = template.Must(template.New("prompt").Parse(
	`You are a Czech restaurant menu parser. Parse the given menu {{.Kind}} into structured JSON.

Today's date: {{.Date}}
Day of week: {{.Weekday}}
Source URL: {{.SourceURL}}

IMPORTANT: Return ONLY valid JSON without any additional text or markdown formatting.

Required JSON format:
{
  "restaurant_name": "Name of restaurant or 'Unknown Restaurant' if not found",
  "date": "{{.Date}}",
  "day_of_week": "pondělí|úterý|středa|čtvrtek|pátek|sobota|neděle",
  "menu_items": [
    {
      "category": "polévka|hlavní chod|salát|dezert|nápoj|příloha",
      "name": "Dish name",
      "price": 145,
      "allergens": ["1", "3", "9"],
      "weight": "150g"
    }
  ],
  "daily_menu": true,
  "source_url": "{{.SourceURL}}"
}

Rules:
1. Take the restaurant name from headings, titles or business names.
2. Decide whether this is the daily menu for {{.Weekday}} ({{.Date}}):
   - daily_menu=true only if the menu explicitly shows today's date or weekday
   - daily_menu=false if it shows other dates or weekdays, or is a general/permanent menu
   - take day_of_week from the content if it is mentioned explicitly
3. Categories: "polévka" soups, "hlavní chod" main dishes (meat, pasta, rice), "salát" salads,
   "dezert" desserts and sweets, "nápoj" drinks, "příloha" side dishes, bread and garnish.
4. Prices are integer CZK: "145,-" is 145, "120 Kč" is 120, "95.50" is 95.
5. Allergens are codes written like "(1,3,9)" or "alergeny: 1,3,9", returned as an array of strings.
6. Include weight or portion when given, with kg converted to g and l to ml.
7. When several dates appear, use the one the items belong to and set daily_menu accordingly.
8. With no menu items, return an empty menu_items array.
9. Always include every field, using sensible defaults.
{{if .Markdown}}
The content is the menu region of the page converted to Markdown. Tables usually hold one dish per row
with the price in its own column, and headings name the menu sections.
{{else}}
The content is the visible text of the page. Items are usually grouped under section headers,
with the price at the end of the line.
{{end}}
Parse this menu {{.Kind}}:

{{.Body}}`))

type promptData struct {
	Request
	Kind string
	Body string
}

func buildPrompt(req Request, body string) string {
	data := promptData{Request: req, Kind: "text", Body: body}
	if req.Markdown {
		data.Kind = "Markdown"
	}
	var sb strings.Builder
	// the template and its data are fixed, so execution cannot fail
	_ = promptTemplate.Execute(&sb, data)
	return sb.String()
}
