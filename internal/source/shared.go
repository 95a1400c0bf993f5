package source

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
)

type sharedFetchesKey struct{}

// sharedFetches lets the sources of one FetchAll run share a response when
// they request the same endpoint and parameters. The festival and extended
// break views both read GET /festivals.
type sharedFetches struct {
	mu      sync.Mutex
	entries map[string]*sharedFetch
}

type sharedFetch struct {
	done chan struct{}
	data json.RawMessage
	ok   bool
}

func withSharedFetches(ctx context.Context) context.Context {
	return context.WithValue(ctx, sharedFetchesKey{}, &sharedFetches{entries: make(map[string]*sharedFetch)})
}

// fetch calls f, or waits for an identical call already made within the
// same FetchAll run.
func fetch(ctx context.Context, f Fetcher, endpoint string, params url.Values) (json.RawMessage, bool) {
	shared, _ := ctx.Value(sharedFetchesKey{}).(*sharedFetches)
	if shared == nil {
		return f.Fetch(ctx, endpoint, params)
	}

	key := endpoint + "?" + params.Encode()
	shared.mu.Lock()
	entry, found := shared.entries[key]
	if !found {
		entry = &sharedFetch{done: make(chan struct{})}
		shared.entries[key] = entry
	}
	shared.mu.Unlock()

	if found {
		select {
		case <-entry.done:
			return entry.data, entry.ok
		case <-ctx.Done():
			return nil, false
		}
	}

	entry.data, entry.ok = f.Fetch(ctx, endpoint, params)
	close(entry.done)
	return entry.data, entry.ok
}
