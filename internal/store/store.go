// Package store archives the events fetched for one query as a JSON
// snapshot, on local disk or in a Cloud Storage bucket.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"holiday-viewer/internal/model"
)

// ErrNotFound is returned by Load when no snapshot exists for the query.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the archived result of fetching one view.
type Snapshot struct {
	BatchID   string        `json:"batch_id"`
	Query     model.Query   `json:"query"`
	FetchedAt time.Time     `json:"fetched_at"`
	Events    []model.Event `json:"events"`
}

// SnapshotStore keeps the latest snapshot per query.
type SnapshotStore interface {
	// Save writes snap, replacing any snapshot stored for snap.Query.
	Save(ctx context.Context, snap Snapshot) error

	// Load returns the snapshot stored for q, or an error wrapping
	// ErrNotFound.
	Load(ctx context.Context, q model.Query) (Snapshot, error)
}

// SnapshotKey returns the key a snapshot is stored under,
// e.g. "snapshots/2026/JP/festivals".
func SnapshotKey(q model.Query) string {
	return fmt.Sprintf("snapshots/%d/%s/%s", q.Year, q.Country, q.View)
}

func encodeSnapshot(snap Snapshot) ([]byte, error) {
	if err := snap.Query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot query: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot %s: %w", SnapshotKey(snap.Query), err)
	}
	return data, nil
}

// decodeSnapshot parses data and checks that it belongs to q.
func decodeSnapshot(q model.Query, data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot %s: %w", SnapshotKey(q), err)
	}
	if snap.Query != q {
		return Snapshot{}, fmt.Errorf("snapshot %s holds %s", SnapshotKey(q), SnapshotKey(snap.Query))
	}
	return snap, nil
}
