package source

import (
	"context"
	"encoding/json"
	"net/url"

	"holiday-viewer/internal/holidayapi"
	"holiday-viewer/internal/model"
)

// Section keys of the festivals payload. The API labels sections in
// Japanese; the English slugs are accepted as well.
var (
	festivalSectionKeys      = []string{"祭り・文化行事", "festivals-and-culture"}
	extendedBreakSectionKeys = []string{"長期休暇", "extended-breaks"}
)

// SectionSource serves one section of the festivals endpoint.
type SectionSource struct {
	fetcher Fetcher
	kind    model.ViewKind
	keys    []string
}

// NewFestivalSource serves traditional festivals and cultural events.
func NewFestivalSource(f Fetcher) *SectionSource {
	return &SectionSource{fetcher: f, kind: model.ViewFestivals, keys: festivalSectionKeys}
}

// NewExtendedBreakSource serves extended holiday periods.
func NewExtendedBreakSource(f Fetcher) *SectionSource {
	return &SectionSource{fetcher: f, kind: model.ViewExtendedBreaks, keys: extendedBreakSectionKeys}
}

func (s *SectionSource) Kind() model.ViewKind {
	return s.kind
}

func (s *SectionSource) Fetch(ctx context.Context, q model.Query) ([]model.Event, bool) {
	params := url.Values{"country": {string(q.Country)}}
	data, ok := fetch(ctx, s.fetcher, holidayapi.EndpointFestivals, params)
	if !ok {
		return nil, false
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, false
	}

	var section json.RawMessage
	for _, key := range s.keys {
		if raw, found := sections[key]; found {
			section = raw
			break
		}
	}
	if section == nil {
		return nil, false
	}

	// An empty section is reported as no data so the page shows the view's
	// notice instead of a blank list.
	var records []map[string]any
	if err := json.Unmarshal(section, &records); err != nil || len(records) == 0 {
		return nil, false
	}

	events := make([]model.Event, 0, len(records))
	for _, rec := range records {
		events = append(events, normalizeRecord(rec))
	}
	return events, true
}
