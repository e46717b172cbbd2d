package buffer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DefaultBucket holds pending planner writes.
const DefaultBucket = "planner_writes"

const defaultBatch = 50

// Store keeps planner writes that missed Postgres in a BoltDB file.
// Keys sort by priority band, then enqueue time, and each task or profile
// has at most one pending entry.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open buffer %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, bucket: []byte(bucket)}, nil
}

func (s *Store) view(fn func(b *bolt.Bucket) error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.View(func(tx *bolt.Tx) error { return fn(tx.Bucket(s.bucket)) })
}

func (s *Store) update(fn func(b *bolt.Bucket) error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error { return fn(tx.Bucket(s.bucket)) })
}

// Enqueue stores item, folding it into the entity's pending write when there is one.
func (s *Store) Enqueue(item Item) error {
	item.normalize()
	return s.update(func(b *bolt.Bucket) error {
		pending, found := findEntity(b, item)
		if !found {
			return put(b, item)
		}
		if err := b.Delete(pending.bucketKey); err != nil {
			return err
		}
		merged, keep := coalesce(pending, item)
		if !keep {
			return nil
		}
		merged.ID, merged.Timestamp = pending.ID, pending.Timestamp
		return put(b, merged)
	})
}

// Retry swaps a failed item for a fresh entry at the end of its priority band.
// A newer write for the same entity queued meanwhile supersedes it.
func (s *Store) Retry(item Item) error {
	return s.update(func(b *bolt.Bucket) error {
		if len(item.bucketKey) > 0 {
			if err := b.Delete(item.bucketKey); err != nil {
				return err
			}
		} else if err := deleteID(b, item.ID); err != nil {
			return err
		}

		item.bucketKey = nil
		item.Timestamp = time.Now()
		newer, found := findEntity(b, item)
		if !found {
			return put(b, item)
		}
		if err := b.Delete(newer.bucketKey); err != nil {
			return err
		}
		merged, keep := coalesce(item, newer)
		if !keep {
			return nil
		}
		return put(b, merged)
	})
}

// GetBatch returns up to limit items in replay order without removing them.
func (s *Store) GetBatch(limit int) ([]Item, error) {
	if limit <= 0 {
		limit = defaultBatch
	}
	var items []Item
	err := s.view(func(b *bolt.Bucket) error {
		scan(b, func(item Item) bool {
			items = append(items, item)
			return len(items) < limit
		})
		return nil
	})
	return items, err
}

func (s *Store) Remove(item Item) error {
	return s.update(func(b *bolt.Bucket) error {
		if len(item.bucketKey) == 0 {
			return deleteID(b, item.ID)
		}
		return b.Delete(item.bucketKey)
	})
}

func (s *Store) Size() (int, error) {
	var count int
	err := s.view(func(b *bolt.Bucket) error {
		count = b.Stats().KeyN
		return nil
	})
	return count, err
}

// PendingFor counts the items queued on behalf of one owner.
func (s *Store) PendingFor(ownerID string) (int, error) {
	var count int
	err := s.view(func(b *bolt.Bucket) error {
		scan(b, func(item Item) bool {
			if item.OwnerID == ownerID {
				count++
			}
			return true
		})
		return nil
	})
	return count, err
}

// Cleanup drops items queued before olderThan and reports how many went.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	var expired [][]byte
	err := s.update(func(b *bolt.Bucket) error {
		scan(b, func(item Item) bool {
			if item.Timestamp.Before(olderThan) {
				expired = append(expired, item.bucketKey)
			}
			return true
		})
		for _, key := range expired {
			if err := b.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// scan decodes items in key order until fn returns false. Undecodable values are skipped.
func scan(b *bolt.Bucket, fn func(item Item) bool) {
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var item Item
		if err := json.Unmarshal(v, &item); err != nil {
			continue
		}
		item.bucketKey = append([]byte(nil), k...)
		if !fn(item) {
			return
		}
	}
}

func findEntity(b *bolt.Bucket, item Item) (Item, bool) {
	if item.EntityID == "" {
		return Item{}, false
	}
	var match Item
	found := false
	scan(b, func(candidate Item) bool {
		if candidate.Entity == item.Entity && candidate.EntityID == item.EntityID && candidate.OwnerID == item.OwnerID {
			match, found = candidate, true
			return false
		}
		return true
	})
	return match, found
}

func deleteID(b *bolt.Bucket, id string) error {
	if id == "" {
		return nil
	}
	var key []byte
	scan(b, func(item Item) bool {
		if item.ID == id {
			key = item.bucketKey
			return false
		}
		return true
	})
	if key == nil {
		return nil
	}
	return b.Delete(key)
}

func put(b *bolt.Bucket, item Item) error {
	item.bucketKey = []byte(buildKey(item))
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return b.Put(item.bucketKey, payload)
}

// buildKey orders by descending priority so task writes replay before profile writes.
func buildKey(item Item) string {
	return fmt.Sprintf("%d_%020d_%s", 9-item.Priority, item.Timestamp.UnixNano(), item.ID)
}
