package playback

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tubevault/tubevault/internal/domain"
	"github.com/tubevault/tubevault/internal/history"
	"github.com/tubevault/tubevault/internal/playlist"
)

// ErrNotActive indicates an operation that requires active playback
var ErrNotActive = errors.New("no active playback")

// defaultSampleInterval is how often the position sampler polls the player.
const defaultSampleInterval = time.Second

// Sequencer owns what is queued and what is currently playing. All
// mutable playback state (current item, queue, sampler handle) lives on
// the instance, never in package-level variables, so one sequencer maps
// to exactly one playback session at a time.
type Sequencer struct {
	player    domain.Player
	playlists *playlist.Service
	recorder  *history.Recorder
	logger    *slog.Logger

	// sampleInterval paces the position sampler; shortened in tests
	sampleInterval time.Duration

	mu       sync.Mutex
	state    State
	current  *domain.MediaItem
	queue    []domain.MediaItem
	index    int
	source   uint64 // playlist backing the queue; 0 when ad hoc
	position float64
	duration float64
	seeking  bool // suppresses the sampler tick racing a user seek

	// sampleStop is the single live sampler's stop channel; generation
	// lets a cancelled sampler detect it outlived its session.
	sampleStop chan struct{}
	generation uint64
}

// NewSequencer creates a sequencer driving the given player. It registers
// itself as the player's event handler; subscribe it to the playlist
// service to keep active queues consistent under mutation.
func NewSequencer(player domain.Player, playlists *playlist.Service, recorder *history.Recorder, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sequencer{
		player:         player,
		playlists:      playlists,
		recorder:       recorder,
		logger:         logger,
		sampleInterval: defaultSampleInterval,
	}
	player.SetHandler(s.HandleEvent)
	return s
}

// Status is a value snapshot of the playback state.
type Status struct {
	State          State
	Current        *domain.MediaItem
	Position       float64
	Duration       float64
	Queue          []domain.MediaItem
	QueueIndex     int
	SourcePlaylist uint64 // 0 when the queue is ad hoc
}

// Status returns a copy of the current playback state.
func (s *Sequencer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:          s.state,
		Position:       s.position,
		Duration:       s.duration,
		Queue:          append([]domain.MediaItem(nil), s.queue...),
		QueueIndex:     s.index,
		SourcePlaylist: s.source,
	}
	if s.current != nil {
		c := *s.current
		st.Current = &c
	}
	return st
}

// PlayItem starts single-item playback with no queue.
func (s *Sequencer) PlayItem(item domain.MediaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = nil
	s.index = 0
	s.source = 0
	return s.startLocked(item)
}

// PlayPlaylist resolves the playlist into a queue and plays its first
// item. An unknown or empty playlist is reported without entering
// Loading; any previous session is stopped either way.
func (s *Sequencer) PlayPlaylist(id uint64) error {
	p, err := s.playlists.Get(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.stopLocked()
		return err
	}
	if len(p.Items) == 0 {
		s.stopLocked()
		return domain.ErrEmptyPlaylist
	}

	s.queue = append([]domain.MediaItem(nil), p.Items...)
	s.index = 0
	s.source = id
	return s.startLocked(s.queue[0])
}

// startLocked begins playback of item, keeping whatever queue fields the
// caller set up. The play is recorded to history on intent, before the
// player confirms anything.
func (s *Sequencer) startLocked(item domain.MediaItem) error {
	s.stopSamplingLocked()
	s.generation++

	it := item
	s.current = &it
	s.position = 0
	s.duration = 0
	s.seeking = false
	s.state = StateLoading

	if _, err := s.recorder.Record(item); err != nil {
		s.stopLocked()
		return err
	}
	if err := s.player.Load(item.ID); err != nil {
		s.logger.Error("failed to load item", "error", err, "mediaID", item.ID)
		s.stopLocked()
		return err
	}

	s.logger.Info("loading item", "mediaID", item.ID, "title", item.Title)
	return nil
}

// HandleEvent feeds a player lifecycle event into the state machine and
// runs the resulting side effects.
func (s *Sequencer) HandleEvent(ev domain.PlayerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, effects := transition(s.state, ev, len(s.queue) > 0)
	if next != s.state {
		s.logger.Debug("playback transition", "event", ev.String(), "from", s.state.String(), "to", next.String())
	}
	s.state = next

	for _, eff := range effects {
		switch eff {
		case effectStartPlayer:
			if err := s.player.Play(); err != nil {
				s.logger.Error("failed to start player", "error", err)
			}
		case effectStartSampling:
			if s.duration == 0 {
				if d, err := s.player.Duration(); err == nil {
					s.duration = d
				}
			}
			s.startSamplingLocked()
		case effectStopSampling:
			s.stopSamplingLocked()
		case effectResetPosition:
			s.position = 0
		case effectAdvance:
			if err := s.advanceLocked(); err != nil {
				s.logger.Error("failed to advance after ended", "error", err)
			}
		case effectRelease:
			s.stopLocked()
		}
	}
}

// Advance moves to the next queue entry, wrapping to the first item at
// the end of the queue. With no queue it is equivalent to Stop.
func (s *Sequencer) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked()
}

func (s *Sequencer) advanceLocked() error {
	if len(s.queue) == 0 {
		s.stopLocked()
		return nil
	}
	s.index++
	if s.index >= len(s.queue) {
		s.index = 0
	}
	return s.startLocked(s.queue[s.index])
}

// Retreat moves to the previous queue entry, wrapping to the last item
// at the front of the queue. With no queue it is equivalent to Stop.
func (s *Sequencer) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		s.stopLocked()
		return nil
	}
	s.index--
	if s.index < 0 {
		s.index = len(s.queue) - 1
	}
	return s.startLocked(s.queue[s.index])
}

// TogglePlayPause pauses running playback or resumes paused playback.
// The state only changes once the player delivers the matching event.
func (s *Sequencer) TogglePlayPause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StatePlaying:
		return s.player.Pause()
	case StatePaused:
		return s.player.Play()
	default:
		return ErrNotActive
	}
}

// Seek jumps to the given position. The tracked position updates
// optimistically; the suppression flag keeps the sampler's next tick
// from overwriting it with a stale player read.
func (s *Sequencer) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying && s.state != StatePaused {
		return ErrNotActive
	}

	s.seeking = true
	if err := s.player.Seek(seconds); err != nil {
		s.seeking = false
		return err
	}
	s.position = seconds
	return nil
}

// Stop halts the player and resets all playback state. Always succeeds
// and is reachable from every state.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Close stops playback and detaches from the player.
func (s *Sequencer) Close() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
	s.player.SetHandler(nil)
}

func (s *Sequencer) stopLocked() {
	if s.state != StateIdle {
		if err := s.player.Stop(); err != nil {
			s.logger.Warn("player stop failed", "error", err)
		}
	}
	s.resetLocked()
}

// resetLocked returns every playback field to its empty default and
// invalidates any sampler still in flight.
func (s *Sequencer) resetLocked() {
	s.stopSamplingLocked()
	s.generation++
	s.state = StateIdle
	s.current = nil
	s.queue = nil
	s.index = 0
	s.source = 0
	s.position = 0
	s.duration = 0
	s.seeking = false
}

// === Playlist mutation handling (playlist.Observer) ===

// PlaylistItemsChanged re-resolves the active queue after its source
// playlist was mutated. The current item is re-located by media ID; if it
// was the one removed, playback moves to whatever now occupies its old
// position (wrapping past the end). A failure to re-resolve falls back to
// Stop rather than playing from a stale snapshot.
func (s *Sequencer) PlaylistItemsChanged(id uint64) {
	s.mu.Lock()
	if s.source != id || s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	gen := s.generation
	currentID := ""
	if s.current != nil {
		currentID = s.current.ID
	}
	s.mu.Unlock()

	p, err := s.playlists.Get(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.source != id {
		// Session changed while we were reading; drop the stale refresh.
		return
	}

	if err != nil {
		s.logger.Warn("failed to re-resolve active playlist", "error", err, "id", id)
		s.stopLocked()
		return
	}
	if len(p.Items) == 0 {
		s.stopLocked()
		return
	}

	s.queue = append([]domain.MediaItem(nil), p.Items...)
	if idx := p.IndexOf(currentID); idx >= 0 {
		// Current item survived: refresh the queue without interrupting.
		s.index = idx
		return
	}

	if s.index >= len(s.queue) {
		s.index = 0
	}
	if err := s.startLocked(s.queue[s.index]); err != nil {
		s.logger.Error("failed to restart after queue mutation", "error", err)
	}
}

// PlaylistDeleted stops playback when the active queue's source playlist
// is removed outright.
func (s *Sequencer) PlaylistDeleted(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == id && s.state != StateIdle {
		s.stopLocked()
	}
}

// === Position sampling ===

// startSamplingLocked spawns the position sampler if none is live.
// Exactly one sampler exists per playing session.
func (s *Sequencer) startSamplingLocked() {
	if s.sampleStop != nil {
		return
	}
	stop := make(chan struct{})
	s.sampleStop = stop
	go s.sample(stop, s.generation)
}

// stopSamplingLocked cancels the live sampler, if any.
func (s *Sequencer) stopSamplingLocked() {
	if s.sampleStop != nil {
		close(s.sampleStop)
		s.sampleStop = nil
	}
}

// sample polls the player position once per interval until cancelled.
func (s *Sequencer) sample(stop <-chan struct{}, gen uint64) {
	ticker := time.NewTicker(s.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.sampleTick(gen) {
				return
			}
		}
	}
}

// sampleTick performs one position poll and reports whether sampling
// should continue. The generation check guarantees a sampler that raced
// its own cancellation can never mutate a later session's state; a seek
// that landed since the last tick consumes this one so its optimistic
// position is not overwritten by a stale player read.
func (s *Sequencer) sampleTick(gen uint64) bool {
	s.mu.Lock()
	if s.generation != gen || s.state != StatePlaying {
		s.mu.Unlock()
		return false
	}
	if s.seeking {
		s.seeking = false
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	pos, err := s.player.Position()

	s.mu.Lock()
	if err == nil && s.generation == gen && s.state == StatePlaying && !s.seeking {
		s.position = pos
	}
	s.mu.Unlock()
	return true
}
