package source

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"holiday-viewer/internal/model"
)

// Fetcher is the slice of holidayapi.Client the sources depend on.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, bool)
}

// Source produces normalized events for one view kind.
type Source interface {
	// Kind returns the view this source serves.
	Kind() model.ViewKind

	// Fetch retrieves and normalizes events. ok is false when the API
	// returned nothing usable; callers show the view's no-data notice.
	Fetch(ctx context.Context, q model.Query) (events []model.Event, ok bool)
}

// Registry maps view kinds to their sources.
type Registry struct {
	sources []Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry registers the three sources backed by f.
func NewDefaultRegistry(f Fetcher) *Registry {
	r := NewRegistry()
	r.Register(NewHolidaySource(f))
	r.Register(NewFestivalSource(f))
	r.Register(NewExtendedBreakSource(f))
	return r
}

// Register adds a source, replacing any earlier source of the same kind.
func (r *Registry) Register(s Source) {
	for i, existing := range r.sources {
		if existing.Kind() == s.Kind() {
			r.sources[i] = s
			return
		}
	}
	r.sources = append(r.sources, s)
}

// Lookup returns the source for kind.
func (r *Registry) Lookup(kind model.ViewKind) (Source, bool) {
	for _, s := range r.sources {
		if s.Kind() == kind {
			return s, true
		}
	}
	return nil, false
}

// Fetch runs the source registered for q.View.
func (r *Registry) Fetch(ctx context.Context, q model.Query) ([]model.Event, bool) {
	s, ok := r.Lookup(q.View)
	if !ok {
		return nil, false
	}
	return s.Fetch(ctx, q)
}

// FetchAll runs every source for one country and year concurrently.
// Sources reading the same endpoint share one request. Views that yield no
// data are absent from the result.
func (r *Registry) FetchAll(ctx context.Context, country model.Country, year int) map[model.ViewKind][]model.Event {
	ctx = withSharedFetches(ctx)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result = make(map[model.ViewKind][]model.Event)
	)

	for _, s := range r.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()

			q := model.Query{Country: country, Year: year, View: src.Kind()}
			events, ok := src.Fetch(ctx, q)
			if !ok {
				return
			}

			mu.Lock()
			result[src.Kind()] = events
			mu.Unlock()
		}(s)
	}

	wg.Wait()
	return result
}

// Sources returns the registered sources.
func (r *Registry) Sources() []Source {
	return r.sources
}
