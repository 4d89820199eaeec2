// Package repository provides BadgerDB-backed persistence for raw metric
// readings and trained models.
//
// Key layout (single-byte type discriminator, "|"-separated components):
//
//	r|userID|kind|date|source -> JSON(MetricReading)
//	m|userID|target           -> JSON(TrainedModel)
//
// ISO dates sort lexicographically, so a prefix scan over r|user|kind|
// yields readings in chronological order without a secondary index.
//
// The user ID is client supplied, so it is escaped before it enters a key;
// the remaining components come from closed vocabularies the service
// controls.
package repository

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/hygieia/backend/internal/config"
)

const (
	prefixReading = "r|"
	prefixModel   = "m|"
)

// Open opens the embedded store, creating the directory if needed.
// InMemory mode is used by tests.
func Open(cfg config.StoreConfig) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Dir)
	}
	// Badger's default logger writes to stderr with its own format; the
	// application logs through internal/logger instead.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return db, nil
}

// userIDEscaper rewrites the characters that would let a client-supplied
// user ID reach into a neighboring key component. A user ID of "a|sleep"
// must never share a prefix with user "a". The replacement is injective and
// its output contains no separator, so escaped IDs keep distinct prefixes.
var userIDEscaper = strings.NewReplacer("%", "%25", "|", "%7C")

func readingKey(userID, kind, date, source string) []byte {
	return []byte(prefixReading + userIDEscaper.Replace(userID) + "|" + kind + "|" + date + "|" + source)
}

func readingPrefix(userID string) []byte {
	return []byte(prefixReading + userIDEscaper.Replace(userID) + "|")
}

func readingKindPrefix(userID, kind string) []byte {
	return []byte(prefixReading + userIDEscaper.Replace(userID) + "|" + kind + "|")
}

func modelKey(userID, target string) []byte {
	return []byte(prefixModel + userIDEscaper.Replace(userID) + "|" + target)
}

func modelPrefix(userID string) []byte {
	return []byte(prefixModel + userIDEscaper.Replace(userID) + "|")
}
