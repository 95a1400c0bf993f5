package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/civil"

	"holiday-viewer/internal/config"
	"holiday-viewer/internal/holidayapi"
	"holiday-viewer/internal/model"
	"holiday-viewer/internal/source"
	"holiday-viewer/internal/upcoming"
)

type output struct {
	Query     model.Query   `json:"query"`
	Available bool          `json:"available"`
	Events    []model.Event `json:"events"`
	Upcoming  []model.Event `json:"upcoming"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	today := upcoming.Today(cfg.Location)
	country := flag.String("country", string(model.CountryJP), "Country code")
	year := flag.Int("year", today.Year, "Year (holidays only)")
	view := flag.String("view", string(model.ViewPublicHolidays), "publicHolidays, festivals or extendedBreaks")
	flag.Parse()

	q := model.Query{Country: model.Country(*country), Year: *year, View: model.ViewKind(*view)}.Normalize()
	if err := q.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid query: %v\n", err)
		os.Exit(2)
	}

	registry := source.NewDefaultRegistry(holidayapi.NewClient(cfg.APIBaseURL))
	ok, err := run(context.Background(), os.Stdout, registry, q, today)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encoding output: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

// run fetches q and writes the events with their upcoming selection as
// indented JSON. It reports whether the API had data.
func run(ctx context.Context, w io.Writer, registry *source.Registry, q model.Query, today civil.Date) (bool, error) {
	events, ok := registry.Fetch(ctx, q)

	out := output{
		Query:     q,
		Available: ok,
		Events:    events,
		Upcoming:  upcoming.Select(events, today),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return ok, err
	}
	return ok, nil
}
