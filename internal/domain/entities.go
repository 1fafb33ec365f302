package domain

import "fmt"

// MediaItem represents a single playable item from an external catalog.
// Identity is the opaque catalog ID; items are immutable once stored.
type MediaItem struct {
	ID       string // Catalog-assigned unique identifier
	Title    string // Display title
	Channel  string // Uploader/author label
	ThumbURL string // Thumbnail image URL
}

// HistoryEntry is a MediaItem plus the moment it was played.
// PlayedAt doubles as the storage key: epoch milliseconds, strictly
// increasing even when two plays land on the same clock tick.
type HistoryEntry struct {
	MediaItem
	PlayedAt int64
}

// Playlist is an ordered, named collection of media items.
// Items never holds two entries with the same MediaItem.ID.
type Playlist struct {
	ID    uint64 // Store-assigned unique identifier
	Name  string
	Items []MediaItem
}

// Contains reports whether the playlist already holds the given item.
func (p Playlist) Contains(mediaID string) bool {
	return p.IndexOf(mediaID) >= 0
}

// IndexOf returns the position of the item with the given ID, or -1.
func (p Playlist) IndexOf(mediaID string) int {
	for i, item := range p.Items {
		if item.ID == mediaID {
			return i
		}
	}
	return -1
}

// Description returns secondary info for list display (e.g., "3 items").
func (p Playlist) Description() string {
	if len(p.Items) == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", len(p.Items))
}
