package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"holiday-viewer/internal/config"
	"holiday-viewer/internal/firestore"
	"holiday-viewer/internal/holidayapi"
	"holiday-viewer/internal/logger"
	"holiday-viewer/internal/model"
	"holiday-viewer/internal/source"
	"holiday-viewer/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	year := cfg.Snapshot.Year
	if year < model.MinYear || year > model.MaxYear {
		logr.Fatal("snapshot year out of range", zap.Int("year", year))
	}

	// Initialize store (GCS or local)
	var s store.SnapshotStore
	if bucket := cfg.Snapshot.GCSBucket; bucket != "" {
		gcsStore, err := store.NewGCS(ctx, bucket)
		if err != nil {
			logr.Fatal("failed to initialize GCS store", zap.Error(err))
		}
		defer gcsStore.Close()
		s = gcsStore
		logr.Info("store: GCS bucket", zap.String("bucket", bucket))
	} else {
		localStore, err := store.NewLocal(cfg.Snapshot.StoreDir)
		if err != nil {
			logr.Fatal("failed to initialize local store", zap.Error(err))
		}
		s = localStore
		logr.Info("store: local directory", zap.String("dir", cfg.Snapshot.StoreDir))
	}

	// Firestore mirror is optional
	var fsClient *firestore.Client
	if projectID := cfg.Snapshot.GCPProjectID; projectID != "" {
		fsClient, err = firestore.New(ctx, projectID, cfg.Snapshot.FirestoreCollection)
		if err != nil {
			logr.Fatal("failed to initialize Firestore client", zap.Error(err))
		}
		defer fsClient.Close()
		logr.Info("firestore mirror enabled",
			zap.String("project", projectID),
			zap.String("collection", cfg.Snapshot.FirestoreCollection),
		)
	}

	client := holidayapi.NewClient(cfg.APIBaseURL, holidayapi.WithLogger(logr.Named("holidayapi")))
	registry := source.NewDefaultRegistry(client)

	batchID := time.Now().UTC().Format("20060102-150405")
	logr.Info("starting snapshot", zap.String("batch_id", batchID), zap.Int("year", year))

	total, missing, failed := 0, 0, 0
	for _, country := range model.Countries {
		results := registry.FetchAll(ctx, country, year)

		for _, view := range model.ViewKinds {
			q := model.Query{Country: country, Year: year, View: view}
			events, ok := results[view]
			if !ok {
				logr.Warn("no data", zap.String("country", string(country)), zap.String("view", string(view)))
				missing++
				continue
			}

			snap := store.Snapshot{BatchID: batchID, Query: q, FetchedAt: time.Now().UTC(), Events: events}
			if err := s.Save(ctx, snap); err != nil {
				logr.Error("failed to store snapshot", zap.String("key", store.SnapshotKey(q)), zap.Error(err))
				failed++
				continue
			}

			if fsClient != nil {
				if err := fsClient.ReplaceEvents(ctx, q, events, batchID); err != nil {
					logr.Error("failed to mirror snapshot", zap.String("key", store.SnapshotKey(q)), zap.Error(err))
					failed++
					continue
				}
			}

			if err := verify(ctx, s, fsClient, q, len(events)); err != nil {
				logr.Error("snapshot verification failed", zap.String("key", store.SnapshotKey(q)), zap.Error(err))
				failed++
				continue
			}

			logr.Info("stored snapshot", zap.String("key", store.SnapshotKey(q)), zap.Int("events", len(events)))
			total += len(events)
		}
	}

	logr.Info("snapshot complete",
		zap.Int("events", total),
		zap.Int("missing_views", missing),
		zap.Int("failed_views", failed),
	)

	if failed > 0 {
		os.Exit(1)
	}
	fmt.Println("Snapshot completed successfully")
}

// verify reads the written snapshot back from the store and, when enabled,
// from Firestore, and checks that both hold want events.
func verify(ctx context.Context, s store.SnapshotStore, fsClient *firestore.Client, q model.Query, want int) error {
	snap, err := s.Load(ctx, q)
	if err != nil {
		return fmt.Errorf("reading back: %w", err)
	}
	if len(snap.Events) != want {
		return fmt.Errorf("store holds %d events, want %d", len(snap.Events), want)
	}

	if fsClient == nil {
		return nil
	}
	mirrored, err := fsClient.GetEvents(ctx, q)
	if err != nil {
		return fmt.Errorf("reading mirror: %w", err)
	}
	if len(mirrored) != want {
		return fmt.Errorf("firestore holds %d events, want %d", len(mirrored), want)
	}
	return nil
}
