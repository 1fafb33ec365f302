package domain

// Player is the external playback surface the sequencer drives.
// Implementations report progress in seconds and deliver lifecycle
// events through the handler registered with SetHandler.
type Player interface {
	// Load prepares the given media item and begins loading it
	Load(mediaID string) error

	// Play resumes or starts playback of the loaded item
	Play() error

	// Pause suspends playback without discarding the loaded item
	Pause() error

	// Stop halts playback and releases the loaded item
	Stop() error

	// Seek jumps to the given position. Clamping out-of-range values
	// is the player's responsibility.
	Seek(seconds float64) error

	// Duration returns the total length of the loaded item in seconds
	Duration() (float64, error)

	// Position returns the current playback position in seconds
	Position() (float64, error)

	// SetHandler registers the callback that receives lifecycle events.
	// Passing nil detaches the previous handler.
	SetHandler(func(PlayerEvent))
}

// PlayerEvent is a lifecycle notification emitted by the external player.
type PlayerEvent int

const (
	// EventReady fires when the requested item finished loading
	EventReady PlayerEvent = iota

	// EventPlaying fires when playback actually starts or resumes
	EventPlaying

	// EventPaused fires when playback is suspended
	EventPaused

	// EventEnded fires when the loaded item played to completion
	EventEnded
)

// String returns a human-readable representation of the event
func (e PlayerEvent) String() string {
	switch e {
	case EventReady:
		return "ready"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}
