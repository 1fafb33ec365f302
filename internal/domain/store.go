package domain

// Store handles durable keyed storage across the three local collections
// (favorites, history, playlists). Services read and mutate through this
// interface; the concrete implementation lives in internal/store.
//
// Not-found on reads is reported as a false second return, not an error.
// Real storage failures (closed database, aborted transaction) always
// surface as errors and are never swallowed.
type Store interface {
	// === Favorites (keyed by MediaItem.ID, upsert semantics) ===
	SaveFavorite(item MediaItem) error
	Favorite(mediaID string) (MediaItem, bool, error)
	Favorites() ([]MediaItem, error)
	DeleteFavorite(mediaID string) error

	// === History (append-only, store-assigned keys) ===
	AppendHistory(item MediaItem) (HistoryEntry, error)
	History() ([]HistoryEntry, error)

	// === Playlists (store-assigned IDs) ===
	CreatePlaylist(name string) (uint64, error)
	Playlist(id uint64) (Playlist, bool, error)
	Playlists() ([]Playlist, error)
	DeletePlaylist(id uint64) error

	// UpdatePlaylist runs fn against the current stored playlist inside a
	// single read-modify-write transaction. If fn returns an error the
	// transaction rolls back and no mutation becomes visible. Returns
	// ErrPlaylistNotFound when the playlist does not exist.
	UpdatePlaylist(id uint64, fn func(*Playlist) error) error

	// === Lifecycle ===
	Close() error
}
