package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"holiday-viewer/internal/model"
)

// GCSStore keeps snapshots as JSON objects in a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCS creates a GCSStore for bucket. The client honours
// STORAGE_EMULATOR_HOST.
func NewGCS(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSStore{
		client: client,
		bucket: bucket,
	}, nil
}

func (s *GCSStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	writer := s.object(snap.Query).NewWriter(ctx)
	writer.ContentType = "application/json"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("uploading snapshot %s: %w", SnapshotKey(snap.Query), err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("uploading snapshot %s: %w", SnapshotKey(snap.Query), err)
	}
	return nil
}

func (s *GCSStore) Load(ctx context.Context, q model.Query) (Snapshot, error) {
	reader, err := s.object(q).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, SnapshotKey(q))
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("opening snapshot %s: %w", SnapshotKey(q), err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return Snapshot{}, fmt.Errorf("downloading snapshot %s: %w", SnapshotKey(q), err)
	}
	return decodeSnapshot(q, data)
}

// Close closes the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) object(q model.Query) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(objectName(q))
}

func objectName(q model.Query) string {
	return SnapshotKey(q) + ".json"
}
