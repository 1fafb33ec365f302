package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrPlaylistNotFound indicates the requested playlist does not exist
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrEmptyPlaylist indicates an attempt to play a playlist with no items
	ErrEmptyPlaylist = errors.New("playlist has no items")

	// ErrUnsupported indicates a capability the attached player does not offer
	ErrUnsupported = errors.New("operation not supported by this player")
)
