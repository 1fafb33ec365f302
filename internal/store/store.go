package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tubevault/tubevault/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketFavorites = []byte("favorites")
	bucketHistory   = []byte("history")
	bucketPlaylists = []byte("playlists")
	bucketMeta      = []byte("meta")
)

var keySchemaVersion = []byte("schema_version")

// schemaVersion is bumped whenever a new bucket is introduced. Migration
// only ever creates missing buckets, so re-running it against a current
// database is a no-op.
const schemaVersion = 1

// EntityStore implements domain.Store using BoltDB. Each collection maps
// to one bucket; bbolt's Update/View closures give the all-or-nothing
// read-modify-write unit the playlist invariants depend on.
type EntityStore struct {
	db *bolt.DB

	// now produces history keys; replaced in tests for deterministic clocks
	now func() int64
}

// Open opens (or creates) the database at path and migrates the schema.
// A second process holding the file lock surfaces as an error after the
// open timeout rather than blocking forever.
func Open(path string) (*EntityStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	return &EntityStore{
		db:  db,
		now: func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// migrate creates any missing buckets and records the schema version.
func migrate(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketFavorites, bucketHistory, bucketPlaylists, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		meta := tx.Bucket(bucketMeta)
		if v := meta.Get(keySchemaVersion); v != nil && btoi(v) >= schemaVersion {
			return nil
		}
		return meta.Put(keySchemaVersion, itob(schemaVersion))
	})
}

func (s *EntityStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *EntityStore) get(bucket, key []byte, dest interface{}) (bool, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get(key); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("read %s: %w", bucket, err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s record: %w", bucket, err)
	}
	return true, nil
}

func (s *EntityStore) put(bucket, key []byte, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", bucket, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", bucket, err)
	}
	return nil
}

func (s *EntityStore) delete(bucket, key []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(key)
	})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", bucket, err)
	}
	return nil
}

// === Favorites ===

func (s *EntityStore) SaveFavorite(item domain.MediaItem) error {
	return s.put(bucketFavorites, []byte(item.ID), item)
}

func (s *EntityStore) Favorite(mediaID string) (domain.MediaItem, bool, error) {
	var item domain.MediaItem
	ok, err := s.get(bucketFavorites, []byte(mediaID), &item)
	return item, ok, err
}

func (s *EntityStore) Favorites() ([]domain.MediaItem, error) {
	var items []domain.MediaItem
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFavorites).ForEach(func(_, v []byte) error {
			var item domain.MediaItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("decode favorite: %w", err)
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}
	return items, nil
}

func (s *EntityStore) DeleteFavorite(mediaID string) error {
	return s.delete(bucketFavorites, []byte(mediaID))
}

// === History ===

// AppendHistory inserts a new entry keyed by the current clock. Keys are
// strictly increasing: when two appends land on the same millisecond the
// second one gets a synthetic key one past the last stored key.
func (s *EntityStore) AppendHistory(item domain.MediaItem) (domain.HistoryEntry, error) {
	entry := domain.HistoryEntry{MediaItem: item}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		key := s.now()
		if last, _ := b.Cursor().Last(); last != nil && btoi(last) >= key {
			key = btoi(last) + 1
		}
		entry.PlayedAt = key

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode history entry: %w", err)
		}
		return b.Put(itob(key), data)
	})
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("append history: %w", err)
	}
	return entry, nil
}

// History returns all entries in key (insertion) order. Ordering for
// display is the recorder's concern.
func (s *EntityStore) History() ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketHistory).ForEach(func(_, v []byte) error {
			var entry domain.HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("decode history entry: %w", err)
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

// === Playlists ===

func (s *EntityStore) CreatePlaylist(name string) (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPlaylists)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = seq

		data, err := json.Marshal(domain.Playlist{ID: id, Name: name, Items: []domain.MediaItem{}})
		if err != nil {
			return fmt.Errorf("encode playlist: %w", err)
		}
		return b.Put(itob(int64(id)), data)
	})
	if err != nil {
		return 0, fmt.Errorf("create playlist: %w", err)
	}
	return id, nil
}

func (s *EntityStore) Playlist(id uint64) (domain.Playlist, bool, error) {
	var p domain.Playlist
	ok, err := s.get(bucketPlaylists, itob(int64(id)), &p)
	return p, ok, err
}

func (s *EntityStore) Playlists() ([]domain.Playlist, error) {
	var playlists []domain.Playlist
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPlaylists).ForEach(func(_, v []byte) error {
			var p domain.Playlist
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("decode playlist: %w", err)
			}
			playlists = append(playlists, p)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read playlists: %w", err)
	}
	return playlists, nil
}

// UpdatePlaylist applies fn to the stored playlist inside one write
// transaction. Interleaved callers serialize on the transaction, so a
// concurrent pair of read-modify-write mutations cannot lose an update.
// An error from fn aborts the transaction with nothing written.
func (s *EntityStore) UpdatePlaylist(id uint64, fn func(*domain.Playlist) error) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPlaylists)
		key := itob(int64(id))

		v := b.Get(key)
		if v == nil {
			return domain.ErrPlaylistNotFound
		}
		var p domain.Playlist
		if err := json.Unmarshal(v, &p); err != nil {
			return fmt.Errorf("decode playlist: %w", err)
		}

		if err := fn(&p); err != nil {
			return err
		}
		p.ID = id

		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode playlist: %w", err)
		}
		return b.Put(key, data)
	})
	if err == nil || err == domain.ErrPlaylistNotFound {
		return err
	}
	return fmt.Errorf("update playlist %d: %w", id, err)
}

func (s *EntityStore) DeletePlaylist(id uint64) error {
	return s.delete(bucketPlaylists, itob(int64(id)))
}

// itob encodes an integer key as big-endian so bucket order matches
// numeric order.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
