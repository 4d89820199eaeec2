package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/hygieia/backend/internal/models"
)

// badgerReadingRepository implements ReadingRepository on BadgerDB.
type badgerReadingRepository struct {
	db *badger.DB
}

// NewReadingRepository creates a reading repository backed by db.
func NewReadingRepository(db *badger.DB) ReadingRepository {
	return &badgerReadingRepository{db: db}
}

// SaveReadings upserts a batch of readings in one transaction. Re-ingesting
// the same reading overwrites the same key, so ingestion is idempotent.
func (r *badgerReadingRepository) SaveReadings(ctx context.Context, userID string, readings []models.MetricReading) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	return r.db.Update(func(txn *badger.Txn) error {
		for i := range readings {
			rd := readings[i]
			if _, err := models.ParseDay(rd.Date); err != nil {
				return &models.MalformedSeriesError{Kind: rd.Kind, Reason: "unparseable date " + rd.Date}
			}
			buf, err := json.Marshal(rd)
			if err != nil {
				return fmt.Errorf("failed to encode reading: %w", err)
			}
			key := readingKey(userID, string(rd.Kind), rd.Date, string(rd.Source))
			if err := txn.Set(key, buf); err != nil {
				return fmt.Errorf("failed to store reading: %w", err)
			}
		}
		return nil
	})
}

// GetReadings returns every reading for a user, ordered by kind, date,
// then source (the key order).
func (r *badgerReadingRepository) GetReadings(ctx context.Context, userID string) ([]models.MetricReading, error) {
	return r.scan(readingPrefix(userID))
}

// GetReadingsByKind returns a user's readings for one metric kind in
// chronological order.
func (r *badgerReadingRepository) GetReadingsByKind(ctx context.Context, userID string, kind models.MetricKind) ([]models.MetricReading, error) {
	return r.scan(readingKindPrefix(userID, string(kind)))
}

func (r *badgerReadingRepository) scan(prefix []byte) ([]models.MetricReading, error) {
	var out []models.MetricReading
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rd models.MetricReading
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rd)
			}); err != nil {
				return fmt.Errorf("failed to decode reading: %w", err)
			}
			out = append(out, rd)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
