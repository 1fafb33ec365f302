package domain

import "context"

// Catalog searches an external media catalog for playable items.
// The core never calls this itself; it only receives MediaItem values
// produced by an implementation at the application boundary.
type Catalog interface {
	Search(ctx context.Context, query string) ([]MediaItem, error)
}
