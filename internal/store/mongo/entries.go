package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"printq/internal/queue"
)

type entryModel struct {
	JobRef    string    `bson:"job_ref"`
	Position  int64     `bson:"position"`
	Status    string    `bson:"status"`
	Active    bool      `bson:"active"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toModel(entry queue.Entry) entryModel {
	return entryModel{
		JobRef:    entry.JobRef,
		Position:  entry.Position,
		Status:    string(entry.Status),
		Active:    entry.IsActive(),
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}

func fromModel(m entryModel) queue.Entry {
	return queue.Entry{
		JobRef:    m.JobRef,
		Position:  m.Position,
		Status:    queue.Status(m.Status),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// now is truncated to the millisecond precision BSON dates store.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Insert persists a new entry. The unique indexes reject duplicates.
func (s *Store) Insert(ctx context.Context, entry queue.Entry) (queue.Entry, error) {
	t := now()
	entry.CreatedAt = t
	entry.UpdatedAt = t
	if _, err := s.collection().InsertOne(ctx, toModel(entry)); err != nil {
		if translated := translateDuplicate(err, entry); translated != err {
			return queue.Entry{}, translated
		}
		return queue.Entry{}, fmt.Errorf("mongo: insert entry: %w", err)
	}
	return entry, nil
}

// GetByJob fetches an entry by job reference, returning nil when absent.
func (s *Store) GetByJob(ctx context.Context, jobRef string) (*queue.Entry, error) {
	var m entryModel
	err := s.collection().FindOne(ctx, bson.M{"job_ref": jobRef}).Decode(&m)
	if isNoDocuments(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: get entry: %w", err)
	}
	entry := fromModel(m)
	return &entry, nil
}

// ListActive returns pending and in-progress entries ordered by position.
func (s *Store) ListActive(ctx context.Context) ([]queue.Entry, error) {
	return s.find(ctx, bson.M{"active": true}, bson.D{{Key: "position", Value: 1}})
}

// List returns entries in any of statuses, or all entries, ordered by
// creation time.
func (s *Store) List(ctx context.Context, statuses ...queue.Status) ([]queue.Entry, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, status := range statuses {
			values = append(values, string(status))
		}
		filter["status"] = bson.M{"$in": values}
	}
	return s.find(ctx, filter, bson.D{{Key: "created_at", Value: 1}, {Key: "position", Value: 1}})
}

// UpdateStatus sets next only while the stored status equals expected.
func (s *Store) UpdateStatus(ctx context.Context, jobRef string, expected, next queue.Status) (queue.Entry, error) {
	filter := bson.M{"job_ref": jobRef, "status": string(expected)}
	update := bson.M{"$set": bson.M{
		"status":     string(next),
		"active":     queue.IsActiveStatus(next),
		"updated_at": now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m entryModel
	err := s.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&m)
	if err == nil {
		return fromModel(m), nil
	}
	if !isNoDocuments(err) {
		if errors.Is(translateDuplicate(err, queue.Entry{JobRef: jobRef}), queue.ErrPositionConflict) {
			return queue.Entry{}, fmt.Errorf("%w: %s cannot rejoin the active set", queue.ErrPositionConflict, jobRef)
		}
		return queue.Entry{}, fmt.Errorf("mongo: update status: %w", err)
	}

	current, getErr := s.GetByJob(ctx, jobRef)
	if getErr != nil {
		return queue.Entry{}, getErr
	}
	if current == nil {
		return queue.Entry{}, fmt.Errorf("%w: %s", queue.ErrNotFound, jobRef)
	}
	return queue.Entry{}, fmt.Errorf("%w: %s is %s, expected %s", queue.ErrConflict, jobRef, current.Status, expected)
}

// Stats returns a count of entries grouped by status.
func (s *Store) Stats(ctx context.Context) (map[queue.Status]int, error) {
	pipeline := mongod.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := s.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongo: queue stats: %w", err)
	}
	defer cursor.Close(ctx)

	stats := make(map[queue.Status]int)
	for cursor.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("mongo: decode stats: %w", err)
		}
		stats[queue.Status(row.Status)] = row.Count
	}
	return stats, cursor.Err()
}

// Purge deletes completed and failed entries last updated before cutoff.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.collection().DeleteMany(ctx, bson.M{
		"status":     bson.M{"$in": []string{string(queue.StatusCompleted), string(queue.StatusFailed)}},
		"updated_at": bson.M{"$lt": before.UTC()},
	})
	if err != nil {
		return 0, fmt.Errorf("mongo: purge entries: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, sort bson.D) ([]queue.Entry, error) {
	cursor, err := s.collection().Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("mongo: find entries: %w", err)
	}
	defer cursor.Close(ctx)

	var models []entryModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("mongo: decode entries: %w", err)
	}
	entries := make([]queue.Entry, 0, len(models))
	for _, m := range models {
		entries = append(entries, fromModel(m))
	}
	return entries, nil
}
