package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/newsbox/internal/feed"
)

var (
	snapshotsBucket = []byte("snapshots")
	metaBucket      = []byte("metadata")

	lastRefreshKey = []byte("last_refresh")
)

var ErrNotFound = errors.New("not found")

// Store keeps the last good copy of every feed together with its HTTP
// validators, so refreshes can use conditional requests. It satisfies
// feed.Cache.
type Store struct {
	db *bolt.DB
}

var _ feed.Cache = (*Store)(nil)

func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{snapshotsBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot returns the cached copy of the feed at url. Unreadable records
// are treated as missing so the next fetch simply replaces them.
func (s *Store) Snapshot(url string) (feed.Snapshot, bool) {
	var (
		snap  feed.Snapshot
		found bool
	)
	_ = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(snapshotsBucket).Get([]byte(url))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil
		}
		found = true
		return nil
	})
	return snap, found
}

func (s *Store) PutSnapshot(url string, snap feed.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotsBucket).Put([]byte(url), data)
	})
}

// Snapshots returns every cached feed keyed by URL.
func (s *Store) Snapshots() (map[string]feed.Snapshot, error) {
	out := make(map[string]feed.Snapshot)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotsBucket).ForEach(func(k, v []byte) error {
			var snap feed.Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return nil
			}
			out[string(k)] = snap
			return nil
		})
	})
	return out, err
}

// Prune drops cached feeds whose URL is not in keep and reports how many
// were removed.
func (s *Store) Prune(keep []string) (int, error) {
	wanted := make(map[string]struct{}, len(keep))
	for _, u := range keep {
		wanted[u] = struct{}{}
	}

	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotsBucket)
		var stale [][]byte
		err := b.ForEach(func(k, _ []byte) error {
			if _, ok := wanted[string(k)]; !ok {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		// Deleting through a live cursor skips entries, so delete afterwards.
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// MarkRefreshed records when the last successful refresh cycle finished.
func (s *Store) MarkRefreshed(at time.Time) error {
	data, err := at.MarshalText()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put(lastRefreshKey, data)
	})
}

// LastRefresh returns the time recorded by MarkRefreshed.
func (s *Store) LastRefresh() (time.Time, error) {
	var at time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get(lastRefreshKey)
		if data == nil {
			return ErrNotFound
		}
		return at.UnmarshalText(data)
	})
	return at, err
}
