// Package upcoming picks the events that have not happened yet.
package upcoming

import (
	"regexp"
	"slices"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/text/width"

	"holiday-viewer/internal/model"
)

// DisplayLimit is how many upcoming events the page shows.
const DisplayLimit = 5

var monthDayRegex = regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`)

// Today returns the current calendar date in loc.
func Today(loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.Local
	}
	return civil.DateOf(time.Now().In(loc))
}

// ParseLocalizedDate extracts a "<month>月<day>日" fragment from text and
// places it in today's year. The source omits years for recurring events.
func ParseLocalizedDate(text string, today civil.Date) (civil.Date, bool) {
	m := monthDayRegex.FindStringSubmatch(width.Fold.String(text))
	if m == nil {
		return civil.Date{}, false
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])

	d := civil.Date{Year: today.Year, Month: time.Month(month), Day: day}
	if !d.IsValid() {
		return civil.Date{}, false
	}
	return d, true
}

// DateOf resolves the calendar date of an event: its exact date when the
// source supplied one, otherwise the date parsed from its display text.
func DateOf(e model.Event, today civil.Date) (civil.Date, bool) {
	if e.Date != nil {
		return *e.Date, true
	}
	if e.DateText == "" {
		return civil.Date{}, false
	}
	return ParseLocalizedDate(e.DateText, today)
}

type dated struct {
	date  civil.Date
	event model.Event
}

// Select returns the events dated today or later, earliest first. Events
// sharing a date keep their input order. Events without a usable date are
// dropped.
func Select(events []model.Event, today civil.Date) []model.Event {
	var kept []dated
	for _, e := range events {
		d, ok := DateOf(e, today)
		if !ok || d.Before(today) {
			continue
		}
		kept = append(kept, dated{date: d, event: e})
	}

	slices.SortStableFunc(kept, func(a, b dated) int {
		switch {
		case a.date.Before(b.date):
			return -1
		case a.date.After(b.date):
			return 1
		default:
			return 0
		}
	})

	result := make([]model.Event, len(kept))
	for i, k := range kept {
		result[i] = k.event
	}
	return result
}

// Top truncates the selection to n events.
func Top(events []model.Event, n int) []model.Event {
	if len(events) <= n {
		return events
	}
	return events[:n]
}
