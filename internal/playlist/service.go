package playlist

import (
	"errors"
	"log/slog"

	"github.com/tubevault/tubevault/internal/domain"
)

// Observer receives notifications after playlist mutations commit. The
// playback sequencer subscribes so it can refresh a queue sourced from a
// playlist that changed under it.
type Observer interface {
	// PlaylistItemsChanged fires after an item was added to or removed
	// from the playlist.
	PlaylistItemsChanged(id uint64)

	// PlaylistDeleted fires after the playlist was removed entirely.
	PlaylistDeleted(id uint64)
}

// Service owns playlist CRUD and the no-duplicate-item invariant on top
// of the store. Every read-modify-write of a playlist's items runs inside
// one store transaction, so interleaved mutations on the same playlist
// cannot lose updates.
type Service struct {
	store     domain.Store
	logger    *slog.Logger
	observers []Observer
}

// NewService creates a new playlist service.
func NewService(store domain.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Subscribe registers an observer for mutation notifications.
// Not safe to call concurrently with mutations; wire observers at startup.
func (s *Service) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

// Create stores a new empty playlist and returns its assigned ID.
// Name validation is the caller's concern.
func (s *Service) Create(name string) (uint64, error) {
	id, err := s.store.CreatePlaylist(name)
	if err != nil {
		s.logger.Error("failed to create playlist", "error", err, "name", name)
		return 0, err
	}
	s.logger.Info("created playlist", "id", id, "name", name)
	return id, nil
}

// Get returns a snapshot of the playlist, or ErrPlaylistNotFound.
// Snapshots are value copies; re-fetch after a mutation to observe it.
func (s *Service) Get(id uint64) (domain.Playlist, error) {
	p, ok, err := s.store.Playlist(id)
	if err != nil {
		s.logger.Error("failed to get playlist", "error", err, "id", id)
		return domain.Playlist{}, err
	}
	if !ok {
		return domain.Playlist{}, domain.ErrPlaylistNotFound
	}
	return p, nil
}

// List returns snapshots of all playlists with their full item lists.
func (s *Service) List() ([]domain.Playlist, error) {
	playlists, err := s.store.Playlists()
	if err != nil {
		s.logger.Error("failed to list playlists", "error", err)
		return nil, err
	}
	return playlists, nil
}

// Rename changes the playlist's display name.
func (s *Service) Rename(id uint64, name string) error {
	err := s.store.UpdatePlaylist(id, func(p *domain.Playlist) error {
		p.Name = name
		return nil
	})
	if err != nil {
		s.logger.Error("failed to rename playlist", "error", err, "id", id)
		return err
	}
	s.logger.Info("renamed playlist", "id", id, "name", name)
	return nil
}

// AddItem appends the item to the playlist. Returns false without
// mutating when an item with the same media ID is already present.
func (s *Service) AddItem(id uint64, item domain.MediaItem) (bool, error) {
	added := false
	err := s.store.UpdatePlaylist(id, func(p *domain.Playlist) error {
		if p.Contains(item.ID) {
			return nil
		}
		p.Items = append(p.Items, item)
		added = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPlaylistNotFound) {
			s.logger.Error("failed to add playlist item", "error", err, "id", id, "mediaID", item.ID)
		}
		return false, err
	}
	if !added {
		s.logger.Debug("playlist item already present", "id", id, "mediaID", item.ID)
		return false, nil
	}
	s.logger.Info("added playlist item", "id", id, "mediaID", item.ID)
	s.notifyItemsChanged(id)
	return true, nil
}

// RemoveItem filters the item out of the playlist. Removing an absent
// item is a no-op.
func (s *Service) RemoveItem(id uint64, mediaID string) error {
	removed := false
	err := s.store.UpdatePlaylist(id, func(p *domain.Playlist) error {
		kept := p.Items[:0]
		for _, item := range p.Items {
			if item.ID == mediaID {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		p.Items = kept
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPlaylistNotFound) {
			s.logger.Error("failed to remove playlist item", "error", err, "id", id, "mediaID", mediaID)
		}
		return err
	}
	if removed {
		s.logger.Info("removed playlist item", "id", id, "mediaID", mediaID)
		s.notifyItemsChanged(id)
	}
	return nil
}

// Delete removes the playlist entirely. Observers are told afterwards so
// an active queue sourced from it can shut down.
func (s *Service) Delete(id uint64) error {
	if err := s.store.DeletePlaylist(id); err != nil {
		s.logger.Error("failed to delete playlist", "error", err, "id", id)
		return err
	}
	s.logger.Info("deleted playlist", "id", id)
	for _, o := range s.observers {
		o.PlaylistDeleted(id)
	}
	return nil
}

func (s *Service) notifyItemsChanged(id uint64) {
	for _, o := range s.observers {
		o.PlaylistItemsChanged(id)
	}
}
