package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"holiday-viewer/internal/model"
)

const batchSize = 250 // Stay well under Firestore's 500 operation limit

// Client wraps the Firestore client for archived event snapshots.
type Client struct {
	client     *firestore.Client
	collection string
}

// New creates a new Firestore client.
func New(ctx context.Context, projectID, collection string) (*Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Client{
		client:     client,
		collection: collection,
	}, nil
}

// Close closes the Firestore client.
func (c *Client) Close() error {
	return c.client.Close()
}

// ReplaceEvents replaces all events stored for one country and view.
// Existing documents for the pair are deleted before the new ones are written.
func (c *Client) ReplaceEvents(ctx context.Context, q model.Query, events []model.Event, batchID string) error {
	coll := c.client.Collection(c.collection)

	if err := c.deleteEvents(ctx, q); err != nil {
		return fmt.Errorf("deleting existing events: %w", err)
	}

	for i := 0; i < len(events); i += batchSize {
		end := min(i+batchSize, len(events))
		batch := c.client.Batch()

		for pos, ev := range events[i:end] {
			doc := coll.Doc(generateDocID(q, ev, i+pos))
			batch.Set(doc, eventToMap(q, ev, i+pos, batchID))
		}

		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("committing batch: %w", err)
		}
	}

	return nil
}

func (c *Client) query(q model.Query) firestore.Query {
	return c.client.Collection(c.collection).
		Where("country", "==", string(q.Country)).
		Where("view", "==", string(q.View)).
		Where("year", "==", q.Year)
}

// deleteEvents deletes all documents for one country, view and year.
func (c *Client) deleteEvents(ctx context.Context, q model.Query) error {
	query := c.query(q)

	for {
		iter := query.Limit(batchSize).Documents(ctx)
		batch := c.client.Batch()
		numDeleted := 0

		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return fmt.Errorf("iterating documents: %w", err)
			}
			batch.Delete(doc.Ref)
			numDeleted++
		}

		if numDeleted == 0 {
			return nil
		}

		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("committing delete batch: %w", err)
		}

		if numDeleted < batchSize {
			return nil
		}
	}
}

// GetEvents retrieves the archived events for one country, view and year in
// their original order.
func (c *Client) GetEvents(ctx context.Context, q model.Query) ([]model.Event, error) {
	var events []model.Event

	iter := c.query(q).OrderBy("position", firestore.Asc).Documents(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating documents: %w", err)
		}

		ev, err := mapToEvent(doc.Data())
		if err != nil {
			return nil, fmt.Errorf("parsing document %s: %w", doc.Ref.ID, err)
		}
		events = append(events, ev)
	}

	return events, nil
}

// generateDocID creates a stable document ID for an event. The position is
// part of the key because records carry no identity of their own.
func generateDocID(q model.Query, ev model.Event, position int) string {
	data := fmt.Sprintf("%d|%s|%s|%d|%s|%s", q.Year, q.Country, q.View, position, ev.Name, ev.DateText)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// eventToMap converts an Event to a Firestore document map.
func eventToMap(q model.Query, ev model.Event, position int, batchID string) map[string]interface{} {
	m := map[string]interface{}{
		"country":     string(q.Country),
		"view":        string(q.View),
		"year":        q.Year,
		"position":    position,
		"name":        ev.Name,
		"date_text":   ev.DateText,
		"kind":        ev.Kind,
		"description": ev.Description,
		"batch_id":    batchID,
	}
	if ev.Date != nil {
		m["date"] = ev.Date.String()
	}
	return m
}

// mapToEvent converts a Firestore document map to an Event.
func mapToEvent(m map[string]interface{}) (model.Event, error) {
	ev := model.Event{}

	if v, ok := m["name"].(string); ok {
		ev.Name = v
	}
	if v, ok := m["date_text"].(string); ok {
		ev.DateText = v
	}
	if v, ok := m["kind"].(string); ok {
		ev.Kind = v
	}
	if v, ok := m["description"].(string); ok {
		ev.Description = v
	}
	if v, ok := m["date"].(string); ok {
		d, err := civil.ParseDate(v)
		if err != nil {
			return model.Event{}, fmt.Errorf("parsing date %q: %w", v, err)
		}
		ev.Date = &d
	}

	return ev, nil
}
