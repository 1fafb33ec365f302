package playback

import "github.com/tubevault/tubevault/internal/domain"

// State identifies where the sequencer is in its lifecycle.
type State int

const (
	// StateIdle means no current item; the terminal, always reachable state
	StateIdle State = iota

	// StateLoading means an item was requested but the player is not ready
	StateLoading

	// StatePlaying means the player confirmed playback is running
	StatePlaying

	// StatePaused means playback is suspended but the item stays loaded
	StatePaused
)

// String returns a human-readable representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// effect is a side effect a transition asks the sequencer to perform.
type effect int

const (
	effectStartPlayer   effect = iota // instruct the player to start
	effectStartSampling               // begin periodic position polling
	effectStopSampling                // cancel position polling
	effectResetPosition               // zero the tracked position
	effectAdvance                     // move to the next queue entry
	effectRelease                     // tear the session down to Idle
)

// transition maps a player lifecycle event onto the next state and the
// side effects to run. It is a pure function of (state, event, queued),
// so the whole table is exercisable without a real player. Events
// arriving in Idle belong to an already-released session and are dropped.
func transition(state State, ev domain.PlayerEvent, queued bool) (State, []effect) {
	if state == StateIdle {
		return state, nil
	}

	switch ev {
	case domain.EventReady:
		return StatePlaying, []effect{effectStartPlayer}
	case domain.EventPlaying:
		return StatePlaying, []effect{effectStartSampling}
	case domain.EventPaused:
		return StatePaused, []effect{effectStopSampling}
	case domain.EventEnded:
		if queued {
			return state, []effect{effectStopSampling, effectResetPosition, effectAdvance}
		}
		return StateIdle, []effect{effectStopSampling, effectResetPosition, effectRelease}
	}
	return state, nil
}
