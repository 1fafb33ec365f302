package favorites

import (
	"log/slog"

	"github.com/tubevault/tubevault/internal/domain"
)

// Service enforces favorite semantics on top of the store: one record per
// media item, keyed by catalog ID, saved with upsert semantics.
type Service struct {
	store  domain.Store
	logger *slog.Logger
}

// NewService creates a new favorites service.
func NewService(store domain.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Save marks an item as a favorite. Saving an existing favorite
// overwrites it in place; the collection never grows a duplicate.
func (s *Service) Save(item domain.MediaItem) error {
	if err := s.store.SaveFavorite(item); err != nil {
		s.logger.Error("failed to save favorite", "error", err, "mediaID", item.ID)
		return err
	}
	s.logger.Debug("saved favorite", "mediaID", item.ID, "title", item.Title)
	return nil
}

// Remove deletes a favorite. Removing an absent item is a no-op.
func (s *Service) Remove(mediaID string) error {
	if err := s.store.DeleteFavorite(mediaID); err != nil {
		s.logger.Error("failed to remove favorite", "error", err, "mediaID", mediaID)
		return err
	}
	s.logger.Debug("removed favorite", "mediaID", mediaID)
	return nil
}

// IsFavorite reports whether the item is currently a favorite.
func (s *Service) IsFavorite(mediaID string) (bool, error) {
	_, ok, err := s.store.Favorite(mediaID)
	if err != nil {
		s.logger.Error("failed to check favorite", "error", err, "mediaID", mediaID)
		return false, err
	}
	return ok, nil
}

// Toggle flips the favorite state of an item and returns the new state:
// true when the item is now a favorite.
func (s *Service) Toggle(item domain.MediaItem) (bool, error) {
	fav, err := s.IsFavorite(item.ID)
	if err != nil {
		return false, err
	}
	if fav {
		return false, s.Remove(item.ID)
	}
	return true, s.Save(item)
}

// List returns all favorites.
func (s *Service) List() ([]domain.MediaItem, error) {
	items, err := s.store.Favorites()
	if err != nil {
		s.logger.Error("failed to list favorites", "error", err)
		return nil, err
	}
	return items, nil
}
