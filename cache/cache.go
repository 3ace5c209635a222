// ABOUTME: Enrichment cache holding the denormalized record set between runs
// ABOUTME: Badger-backed, rebuilt wholesale so stale state never lingers
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/cbaraj14/hubspot-reporting/models"
)

const (
	recordPrefix = "rec:"
	metaBuiltKey = "meta:built_at"
)

// Store is the on-disk enrichment cache. It holds derived state only:
// anything in it can be rebuilt from the raw deal records, so Replace
// drops everything before writing the new set.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the cache at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open enrichment cache: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Replace swaps the cached dataset for a freshly built one. The old
// set is dropped first so a failed write can never leave a mix of old
// and new records; on error the cache is simply empty and the next run
// rebuilds it.
func (s *Store) Replace(records []models.EnrichedRecord) error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("failed to drop stale cache: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i := range records {
		data, err := json.Marshal(&records[i])
		if err != nil {
			return fmt.Errorf("failed to encode record %s: %w", records[i].DealID, err)
		}
		key := fmt.Sprintf("%s%08d", recordPrefix, i)
		if err := wb.Set([]byte(key), data); err != nil {
			return fmt.Errorf("failed to write record %s: %w", records[i].DealID, err)
		}
	}

	builtAt, _ := time.Now().UTC().MarshalText()
	if err := wb.Set([]byte(metaBuiltKey), builtAt); err != nil {
		return fmt.Errorf("failed to write build stamp: %w", err)
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to flush cache write: %w", err)
	}
	return nil
}

// List streams the cached records back in the order they were written.
func (s *Store) List() ([]models.EnrichedRecord, error) {
	var out []models.EnrichedRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(recordPrefix)); it.ValidForPrefix([]byte(recordPrefix)); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec models.EnrichedRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("failed to decode cached record: %w", err)
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of cached records without decoding them.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(recordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek([]byte(recordPrefix)); it.ValidForPrefix([]byte(recordPrefix)); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// BuiltAt reports when the cache was last rebuilt. Zero time when the
// cache has never been built.
func (s *Store) BuiltAt() (time.Time, error) {
	var built time.Time
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaBuiltKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return built.UnmarshalText(val)
		})
	})
	return built, err
}
