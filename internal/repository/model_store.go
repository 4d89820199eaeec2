package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/hygieia/backend/internal/models"
)

// badgerModelRepository implements ModelRepository on BadgerDB.
//
// A trained model occupies exactly one key, written inside a Badger
// transaction, which gives the atomic-replace semantics retraining needs:
// readers see either the old record or the new one, never a torn write.
type badgerModelRepository struct {
	db *badger.DB
}

// NewModelRepository creates a model repository backed by db.
func NewModelRepository(db *badger.DB) ModelRepository {
	return &badgerModelRepository{db: db}
}

func (r *badgerModelRepository) Save(ctx context.Context, model *models.TrainedModel) error {
	if model.UserID == "" || model.Target == "" {
		return fmt.Errorf("model user id and target are required")
	}
	buf, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(modelKey(model.UserID, string(model.Target)), buf)
	})
	if err != nil {
		return fmt.Errorf("failed to store model for %s/%s: %w", model.UserID, model.Target, err)
	}
	return nil
}

func (r *badgerModelRepository) Load(ctx context.Context, userID string, target models.MetricKind) (*models.TrainedModel, error) {
	var model *models.TrainedModel
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(modelKey(userID, string(target)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var m models.TrainedModel
			if err := json.Unmarshal(val, &m); err != nil {
				return fmt.Errorf("failed to decode model: %w", err)
			}
			model = &m
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model, nil
}

func (r *badgerModelRepository) ListTargets(ctx context.Context, userID string) ([]models.MetricKind, error) {
	prefix := modelPrefix(userID)
	var targets []models.MetricKind
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			target := strings.TrimPrefix(key, string(prefix))
			targets = append(targets, models.MetricKind(target))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets, nil
}

func (r *badgerModelRepository) Delete(ctx context.Context, userID string, target models.MetricKind) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(modelKey(userID, string(target)))
	})
}
