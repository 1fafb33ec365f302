package history

import (
	"log/slog"
	"sort"

	"github.com/tubevault/tubevault/internal/domain"
)

// Recorder appends play events to the history collection. History is
// append-only: repeated plays of the same item produce separate entries
// and nothing in the core ever deletes one.
type Recorder struct {
	store  domain.Store
	logger *slog.Logger
	limit  int
}

// NewRecorder creates a new history recorder. A limit > 0 caps how many
// entries ListRecent returns; zero means unbounded.
func NewRecorder(store domain.Store, limit int, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger, limit: limit}
}

// Record appends one entry for the item with a store-assigned timestamp.
func (r *Recorder) Record(item domain.MediaItem) (domain.HistoryEntry, error) {
	entry, err := r.store.AppendHistory(item)
	if err != nil {
		r.logger.Error("failed to record play", "error", err, "mediaID", item.ID)
		return domain.HistoryEntry{}, err
	}
	r.logger.Debug("recorded play", "mediaID", item.ID, "playedAt", entry.PlayedAt)
	return entry, nil
}

// ListRecent returns history entries most recent first. Entries with
// equal timestamps keep their insertion order.
func (r *Recorder) ListRecent() ([]domain.HistoryEntry, error) {
	entries, err := r.store.History()
	if err != nil {
		r.logger.Error("failed to list history", "error", err)
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PlayedAt > entries[j].PlayedAt
	})

	if r.limit > 0 && len(entries) > r.limit {
		entries = entries[:r.limit]
	}
	return entries, nil
}
