package source

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"cloud.google.com/go/civil"

	"holiday-viewer/internal/holidayapi"
	"holiday-viewer/internal/model"
)

type rawHoliday struct {
	Name      string `json:"name"`
	LocalName string `json:"localName"`
	Date      string `json:"date"`
}

// HolidaySource serves the public holiday view.
type HolidaySource struct {
	fetcher Fetcher
}

// NewHolidaySource creates a HolidaySource.
func NewHolidaySource(f Fetcher) *HolidaySource {
	return &HolidaySource{fetcher: f}
}

func (s *HolidaySource) Kind() model.ViewKind {
	return model.ViewPublicHolidays
}

func (s *HolidaySource) Fetch(ctx context.Context, q model.Query) ([]model.Event, bool) {
	params := url.Values{
		"country": {string(q.Country)},
		"year":    {strconv.Itoa(q.Year)},
	}
	data, ok := fetch(ctx, s.fetcher, holidayapi.EndpointHolidays, params)
	if !ok {
		return nil, false
	}

	var raw []rawHoliday
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) == 0 {
		return nil, false
	}

	events := make([]model.Event, 0, len(raw))
	for _, h := range raw {
		events = append(events, normalizeHoliday(h))
	}
	return events, true
}

// normalizeHoliday keeps the ISO date as a real date and only formats it
// for display.
func normalizeHoliday(h rawHoliday) model.Event {
	e := model.Event{
		Name:        h.LocalName,
		DateText:    h.Date,
		Kind:        model.KindHoliday,
		Description: h.Name,
	}
	if e.Name == "" {
		e.Name = h.Name
	}
	if d, err := civil.ParseDate(h.Date); err == nil {
		e.Date = &d
		e.DateText = model.FormatDate(d)
	}
	return e
}
