// Package menu holds the daily menu record, the rules for turning an
// untrusted extraction candidate into one, and the small text extractors
// (prices, weights, allergens, weekdays) shared by the rest of the service.
package menu

import (
	"time"
	_ "time/tzdata"
)

const UnknownRestaurant = "Unknown Restaurant"

// Weekdays in Monday-first order.
var Weekdays = [...]string{"pondělí", "úterý", "středa", "čtvrtek", "pátek", "sobota", "neděle"}

// Categories used in the extraction prompt.
const (
	CategorySoup    = "polévka"
	CategoryMain    = "hlavní chod"
	CategorySalad   = "salát"
	CategoryDessert = "dezert"
	CategoryDrink   = "nápoj"
	CategorySide    = "příloha"
)

// Prague is the reference timezone for "today", cache keys and the
// default weekday.
var Prague = mustLoad("Europe/Prague")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type MenuItem struct {
	Category  string   `json:"category"`
	Name      string   `json:"name"`
	Price     *int     `json:"price"`
	Allergens []string `json:"allergens"`
	Weight    *string  `json:"weight"`
}

type MenuData struct {
	RestaurantName string     `json:"restaurant_name"`
	Date           string     `json:"date"`
	DayOfWeek      string     `json:"day_of_week"`
	MenuItems      []MenuItem `json:"menu_items"`
	DailyMenu      bool       `json:"daily_menu"`
	SourceURL      string     `json:"source_url"`
}

// Result is what a summarize call hands back to its caller.
type Result struct {
	Cached bool      `json:"cached"`
	Data   *MenuData `json:"data"`
}

// Day identifies the query day in the reference timezone.
type Day struct {
	Date    string // YYYY-MM-DD
	Weekday string // Czech weekday name
}

// Today returns the calendar day containing now, as seen in Prague.
func Today(now time.Time) Day {
	local := now.In(Prague)
	return Day{
		Date:    local.Format(time.DateOnly),
		Weekday: WeekdayOf(local.Weekday()),
	}
}

// WeekdayOf maps a Go weekday (Sunday first) onto the Czech names.
func WeekdayOf(wd time.Weekday) string {
	return Weekdays[(int(wd)+6)%7]
}

// WeekdayOfDate returns the Czech weekday for an ISO date.
func WeekdayOfDate(isoDate string) (string, error) {
	t, err := time.ParseInLocation(time.DateOnly, isoDate, Prague)
	if err != nil {
		return "", err
	}
	return WeekdayOf(t.Weekday()), nil
}
