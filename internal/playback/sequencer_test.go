package playback

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tubevault/tubevault/internal/domain"
	"github.com/tubevault/tubevault/internal/history"
	"github.com/tubevault/tubevault/internal/playlist"
	"github.com/tubevault/tubevault/internal/store"
)

// fakePlayer records the calls the sequencer makes. Tests drive lifecycle
// events by calling HandleEvent directly, so the fake never emits on its own.
type fakePlayer struct {
	mu       sync.Mutex
	loaded   []string
	plays    int
	pauses   int
	stops    int
	seeks    []float64
	pos      float64
	posReads int
	dur      float64
	loadErr  error
	handler  func(domain.PlayerEvent)
}

func (p *fakePlayer) Load(mediaID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return p.loadErr
	}
	p.loaded = append(p.loaded, mediaID)
	return nil
}

func (p *fakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	return nil
}

func (p *fakePlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauses++
	return nil
}

func (p *fakePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	return nil
}

func (p *fakePlayer) Seek(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, seconds)
	return nil
}

func (p *fakePlayer) Duration() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dur, nil
}

func (p *fakePlayer) Position() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posReads++
	return p.pos, nil
}

func (p *fakePlayer) positionReads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.posReads
}

func (p *fakePlayer) setPosition(pos float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = pos
}

func (p *fakePlayer) SetHandler(fn func(domain.PlayerEvent)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = fn
}

func (p *fakePlayer) lastLoaded() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.loaded) == 0 {
		return ""
	}
	return p.loaded[len(p.loaded)-1]
}

func (p *fakePlayer) loadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.loaded)
}

type fixture struct {
	player    *fakePlayer
	seq       *Sequencer
	playlists *playlist.Service
	recorder  *history.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "tubevault.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	f := &fixture{
		player:    &fakePlayer{dur: 300},
		playlists: playlist.NewService(st, nil),
		recorder:  history.NewRecorder(st, 0, nil),
	}
	f.seq = NewSequencer(f.player, f.playlists, f.recorder, nil)
	f.playlists.Subscribe(f.seq)
	t.Cleanup(f.seq.Close)
	return f
}

// makePlaylist seeds a playlist with one item per given media ID.
func (f *fixture) makePlaylist(t *testing.T, name string, mediaIDs ...string) uint64 {
	t.Helper()
	id, err := f.playlists.Create(name)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, mediaID := range mediaIDs {
		if _, err := f.playlists.AddItem(id, domain.MediaItem{ID: mediaID, Title: "Track " + mediaID}); err != nil {
			t.Fatalf("AddItem(%q) error = %v", mediaID, err)
		}
	}
	return id
}

func TestPlayItemEntersLoadingAndRecordsHistory(t *testing.T) {
	f := newFixture(t)

	item := domain.MediaItem{ID: "a1", Title: "Song A"}
	if err := f.seq.PlayItem(item); err != nil {
		t.Fatalf("PlayItem() error = %v", err)
	}

	st := f.seq.Status()
	if st.State != StateLoading {
		t.Errorf("State = %v, want Loading", st.State)
	}
	if st.Current == nil || st.Current.ID != "a1" {
		t.Errorf("Current = %v, want a1", st.Current)
	}
	if got := f.player.lastLoaded(); got != "a1" {
		t.Errorf("player loaded %q, want a1", got)
	}

	entries, err := f.recorder.ListRecent()
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "a1" {
		t.Errorf("history = %v, want one entry for a1", entries)
	}
}

func TestPlayItemLoadFailureResetsToIdle(t *testing.T) {
	f := newFixture(t)
	f.player.loadErr = errors.New("player gone")

	err := f.seq.PlayItem(domain.MediaItem{ID: "a1"})
	if err == nil {
		t.Fatal("PlayItem() error = nil, want load failure")
	}
	if st := f.seq.Status(); st.State != StateIdle {
		t.Errorf("State = %v after failed load, want Idle", st.State)
	}
}

func TestPlayPlaylistMissing(t *testing.T) {
	f := newFixture(t)

	err := f.seq.PlayPlaylist(999)
	if !errors.Is(err, domain.ErrPlaylistNotFound) {
		t.Errorf("PlayPlaylist() error = %v, want ErrPlaylistNotFound", err)
	}
	if st := f.seq.Status(); st.State != StateIdle {
		t.Errorf("State = %v, want Idle", st.State)
	}
}

func TestPlayPlaylistEmpty(t *testing.T) {
	f := newFixture(t)
	id := f.makePlaylist(t, "Empty")

	err := f.seq.PlayPlaylist(id)
	if !errors.Is(err, domain.ErrEmptyPlaylist) {
		t.Errorf("PlayPlaylist() error = %v, want ErrEmptyPlaylist", err)
	}
	if st := f.seq.Status(); st.State != StateIdle {
		t.Errorf("State = %v, want Idle", st.State)
	}
}

func TestLifecycleEvents(t *testing.T) {
	f := newFixture(t)

	if err := f.seq.PlayItem(domain.MediaItem{ID: "a1"}); err != nil {
		t.Fatalf("PlayItem() error = %v", err)
	}

	f.seq.HandleEvent(domain.EventReady)
	if st := f.seq.Status(); st.State != StatePlaying {
		t.Fatalf("State after ready = %v, want Playing", st.State)
	}
	if f.player.plays != 1 {
		t.Errorf("player plays = %d, want 1", f.player.plays)
	}

	f.seq.HandleEvent(domain.EventPlaying)
	if st := f.seq.Status(); st.Duration != 300 {
		t.Errorf("Duration = %v, want 300 from player", st.Duration)
	}

	f.seq.HandleEvent(domain.EventPaused)
	if st := f.seq.Status(); st.State != StatePaused {
		t.Errorf("State after paused = %v, want Paused", st.State)
	}

	// Ended without a queue releases the session.
	f.seq.HandleEvent(domain.EventEnded)
	st := f.seq.Status()
	if st.State != StateIdle {
		t.Errorf("State after ended = %v, want Idle", st.State)
	}
	if st.Current != nil {
		t.Errorf("Current = %v after ended, want nil", st.Current)
	}
	if st.Position != 0 {
		t.Errorf("Position = %v after ended, want 0", st.Position)
	}
}

func TestEventsIgnoredWhileIdle(t *testing.T) {
	f := newFixture(t)

	f.seq.HandleEvent(domain.EventReady)
	f.seq.HandleEvent(domain.EventPlaying)

	if st := f.seq.Status(); st.State != StateIdle {
		t.Errorf("State = %v, want Idle (no session started)", st.State)
	}
	if f.player.plays != 0 {
		t.Errorf("player plays = %d, want 0", f.player.plays)
	}
}

func TestEndedAdvancesThroughQueue(t *testing.T) {
	f := newFixture(t)
	id := f.makePlaylist(t, "Road Trip", "a", "b", "c")

	if err := f.seq.PlayPlaylist(id); err != nil {
		t.Fatalf("PlayPlaylist() error = %v", err)
	}

	// a ended -> b, b ended -> c, c ended -> wrap to a.
	for _, want := range []string{"b", "c", "a"} {
		f.seq.HandleEvent(domain.EventEnded)
		st := f.seq.Status()
		if st.State == StateIdle {
			t.Fatalf("State = Idle after ended, want queue to continue at %q", want)
		}
		if st.Current == nil || st.Current.ID != want {
			t.Fatalf("Current = %v, want %q", st.Current, want)
		}
	}
}

func TestAdvanceAndRetreatWrapAround(t *testing.T) {
	f := newFixture(t)
	id := f.makePlaylist(t, "Road Trip", "a", "b", "c")

	if err := f.seq.PlayPlaylist(id); err != nil {
		t.Fatalf("PlayPlaylist() error = %v", err)
	}

	// Retreat from the first item wraps to the last.
	if err := f.seq.Retreat(); err != nil {
		t.Fatalf("Retreat() error = %v", err)
	}
	st := f.seq.Status()
	if st.QueueIndex != 2 || st.Current.ID != "c" {
		t.Errorf("after retreat: index=%d current=%s, want index=2 current=c", st.QueueIndex, st.Current.ID)
	}

	// Advance from the last item wraps to the first.
	if err := f.seq.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	st = f.seq.Status()
	if st.QueueIndex != 0 || st.Current.ID != "a" {
		t.Errorf("after advance: index=%d current=%s, want index=0 current=a", st.QueueIndex, st.Current.ID)
	}
}

func TestAdvanceWithoutQueueStops(t *testing.T) {
	f := newFixture(t)

	if err := f.seq.PlayItem(domain.MediaItem{ID: "a1"}); err != nil {
		t.Fatalf("PlayItem() error = %v", err)
	}
	if err := f.seq.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if st := f.seq.Status(); st.State != StateIdle {
		t.Errorf("State = %v, want Idle", st.State)
	}
}

func TestRemovingCurrentItemMovesToSuccessor(t *testing.T) {
	f := newFixture(t)
	id := f.makePlaylist(t, "Road Trip", "a", "b")

	if err := f.seq.PlayPlaylist(id); err != nil {
		t.Fatalf("PlayPlaylist() error = %v", err)
	}

	// The observer hook fires synchronously from RemoveItem.
	if err := f.playlists.RemoveItem(id, "a"); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}

	st := f.seq.Status()
	if len(st.Queue) != 1 || st.Queue[0].ID != "b" {
		t.Fatalf("Queue = %v, want [b]", st.Queue)
	}
	if st.Current == nil || st.Current.ID != "b" {
		t.Errorf("Current = %v, want b", st.Current)
	}
	if st.State != StateLoading {
		t.Errorf("State = %v, want Loading (successor restarted)", st.State)
	}
	if got := f.player.lastLoaded(); got != "b" {
		t.Errorf("player loaded %q, want b", got)
	}
}

func TestRemovingOtherItemKeepsPlaybackUninterrupted(t *testing.T) {
	f := newFixture(t)
	id := f.makePlaylist(t, "Road Trip", "a", "b", "c")

	if err := f.seq.PlayPlaylist(id); err != nil {
		t.Fatalf("PlayPlaylist() error = %v", err)
	}
	if err := f.seq.Advance(); err != nil { // now on b
		t.Fatalf("Advance() error = %v", err)
	}
	loadsBefore := f.player.loadCount()

	if err := f.playlists.RemoveItem(id, "c"); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}

	st := f.seq.Status()
	if len(st.Queue) != 2 {
		t.Fatalf("Queue len = %d, want 2", len(st.Queue))
	}
	if st.Current == nil || st.Current.ID != "b" {
		t.Errorf("Current = %v, want b unchanged", st.Current)
	}
	if st.QueueIndex != 1 {
		t.Errorf("QueueIndex = %d, want 1 (b re-located)", st.QueueIndex)
	}
	if got := f.player.loadCount(); got != loadsBefore {
		t.Errorf("player loads = %d, want %d (no restart)", got, loadsBefore)
	}
}

func TestEmptyingActivePlaylistStops(t *testing.T) {
	f := newFixture(t)
	id := f.makePlaylist(t, "Road Trip", "a")

	if err := f.seq.PlayPlaylist(id); err != nil {
		t.Fatalf("PlayPlaylist() error = %v", err)
	}
	if err := f.playlists.RemoveItem(id, "a"); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if st := f.seq.Status(); st.State != StateIdle {
		t.Errorf("State = %v, want Idle after queue emptied", st.State)
	}
}

func TestDeletingActivePlaylistStops(t *testing.T) {
	f := newFixture(t)
	id := f.makePlaylist(t, "Road Trip", "a", "b")

	if err := f.seq.PlayPlaylist(id); err != nil {
		t.Fatalf("PlayPlaylist() error = %v", err)
	}
	if err := f.playlists.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	st := f.seq.Status()
	if st.State != StateIdle {
		t.Errorf("State = %v, want Idle", st.State)
	}
	if st.SourcePlaylist != 0 {
		t.Errorf("SourcePlaylist = %d, want 0", st.SourcePlaylist)
	}
}

func TestMutationOfInactivePlaylistIgnored(t *testing.T) {
	f := newFixture(t)
	active := f.makePlaylist(t, "Road Trip", "a")
	other := f.makePlaylist(t, "Focus", "x")

	if err := f.seq.PlayPlaylist(active); err != nil {
		t.Fatalf("PlayPlaylist() error = %v", err)
	}
	if err := f.playlists.RemoveItem(other, "x"); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}

	st := f.seq.Status()
	if st.State == StateIdle || st.Current == nil || st.Current.ID != "a" {
		t.Errorf("playback disturbed by unrelated mutation: %+v", st)
	}
}

func TestTogglePlayPause(t *testing.T) {
	f := newFixture(t)

	if err := f.seq.TogglePlayPause(); !errors.Is(err, ErrNotActive) {
		t.Errorf("TogglePlayPause() while idle error = %v, want ErrNotActive", err)
	}

	f.seq.PlayItem(domain.MediaItem{ID: "a1"})
	if err := f.seq.TogglePlayPause(); !errors.Is(err, ErrNotActive) {
		t.Errorf("TogglePlayPause() while loading error = %v, want ErrNotActive", err)
	}

	f.seq.HandleEvent(domain.EventReady)
	if err := f.seq.TogglePlayPause(); err != nil {
		t.Fatalf("TogglePlayPause() while playing error = %v", err)
	}
	if f.player.pauses != 1 {
		t.Errorf("player pauses = %d, want 1", f.player.pauses)
	}

	f.seq.HandleEvent(domain.EventPaused)
	if err := f.seq.TogglePlayPause(); err != nil {
		t.Fatalf("TogglePlayPause() while paused error = %v", err)
	}
	if f.player.plays != 2 { // one from ready, one from resume
		t.Errorf("player plays = %d, want 2", f.player.plays)
	}
}

func TestSeekUpdatesPositionOptimistically(t *testing.T) {
	f := newFixture(t)

	if err := f.seq.Seek(10); !errors.Is(err, ErrNotActive) {
		t.Errorf("Seek() while idle error = %v, want ErrNotActive", err)
	}

	f.seq.PlayItem(domain.MediaItem{ID: "a1"})
	f.seq.HandleEvent(domain.EventReady)

	if err := f.seq.Seek(42.5); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if st := f.seq.Status(); st.Position != 42.5 {
		t.Errorf("Position = %v, want 42.5", st.Position)
	}
	if len(f.player.seeks) != 1 || f.player.seeks[0] != 42.5 {
		t.Errorf("player seeks = %v, want [42.5]", f.player.seeks)
	}
}

// currentGeneration reads the live session's generation the way a
// freshly spawned sampler would receive it.
func (f *fixture) currentGeneration() uint64 {
	f.seq.mu.Lock()
	defer f.seq.mu.Unlock()
	return f.seq.generation
}

func TestSamplerTickReadsPlayerPosition(t *testing.T) {
	f := newFixture(t)

	f.seq.PlayItem(domain.MediaItem{ID: "a1"})
	f.seq.HandleEvent(domain.EventReady)
	gen := f.currentGeneration()
	f.player.setPosition(7)

	if !f.seq.sampleTick(gen) {
		t.Fatal("sampleTick() = false, want sampling to continue")
	}
	if st := f.seq.Status(); st.Position != 7 {
		t.Errorf("Position = %v, want 7 from player", st.Position)
	}
}

func TestSamplerTickAfterSeekKeepsSeekPosition(t *testing.T) {
	f := newFixture(t)

	f.seq.PlayItem(domain.MediaItem{ID: "a1"})
	f.seq.HandleEvent(domain.EventReady)
	gen := f.currentGeneration()

	if err := f.seq.Seek(42.5); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	f.player.setPosition(3) // stale pre-seek position
	reads := f.player.positionReads()

	// The tick racing the seek yields to it without polling the player.
	if !f.seq.sampleTick(gen) {
		t.Fatal("sampleTick() = false, want sampling to continue")
	}
	if got := f.player.positionReads(); got != reads {
		t.Errorf("position reads = %d, want %d (suppressed tick must not poll)", got, reads)
	}
	if st := f.seq.Status(); st.Position != 42.5 {
		t.Errorf("Position = %v, want seek position 42.5", st.Position)
	}

	// The following tick trusts the player again.
	if !f.seq.sampleTick(gen) {
		t.Fatal("second sampleTick() = false, want sampling to continue")
	}
	if st := f.seq.Status(); st.Position != 3 {
		t.Errorf("Position = %v after next tick, want player position 3", st.Position)
	}
}

func TestStaleSamplerCannotTouchNewSession(t *testing.T) {
	f := newFixture(t)

	f.seq.PlayItem(domain.MediaItem{ID: "a1"})
	f.seq.HandleEvent(domain.EventReady)
	staleGen := f.currentGeneration()

	// A new session invalidates any sampler spawned for the old one.
	f.seq.PlayItem(domain.MediaItem{ID: "a2"})
	f.seq.HandleEvent(domain.EventReady)
	f.player.setPosition(99)
	reads := f.player.positionReads()

	if f.seq.sampleTick(staleGen) {
		t.Error("sampleTick() = true for a stale generation, want false")
	}
	if got := f.player.positionReads(); got != reads {
		t.Errorf("position reads = %d, want %d (stale tick must not poll)", got, reads)
	}
	if st := f.seq.Status(); st.Position != 0 {
		t.Errorf("Position = %v, want 0 untouched by stale sampler", st.Position)
	}
}

func TestSamplerGoroutineTracksPosition(t *testing.T) {
	f := newFixture(t)
	f.seq.sampleInterval = 2 * time.Millisecond

	f.seq.PlayItem(domain.MediaItem{ID: "a1"})
	f.player.setPosition(7)
	f.seq.HandleEvent(domain.EventReady)
	f.seq.HandleEvent(domain.EventPlaying) // starts the sampler

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if st := f.seq.Status(); st.Position == 7 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Errorf("Position = %v, want 7 sampled from player", f.seq.Status().Position)
}

func TestStopFromAnyState(t *testing.T) {
	f := newFixture(t)

	f.seq.Stop() // idle stop is a no-op
	if f.player.stops != 0 {
		t.Errorf("player stops = %d after idle Stop, want 0", f.player.stops)
	}

	f.seq.PlayItem(domain.MediaItem{ID: "a1"})
	f.seq.Stop()

	st := f.seq.Status()
	if st.State != StateIdle || st.Current != nil || len(st.Queue) != 0 {
		t.Errorf("Status after Stop = %+v, want fully reset", st)
	}
	if f.player.stops != 1 {
		t.Errorf("player stops = %d, want 1", f.player.stops)
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name   string
		state  State
		ev     domain.PlayerEvent
		queued bool
		want   State
	}{
		{"idle ignores ready", StateIdle, domain.EventReady, false, StateIdle},
		{"idle ignores ended", StateIdle, domain.EventEnded, true, StateIdle},
		{"loading to playing on ready", StateLoading, domain.EventReady, false, StatePlaying},
		{"playing confirmed", StatePlaying, domain.EventPlaying, false, StatePlaying},
		{"playing to paused", StatePlaying, domain.EventPaused, false, StatePaused},
		{"paused resumes", StatePaused, domain.EventPlaying, false, StatePlaying},
		{"ended with queue stays", StatePlaying, domain.EventEnded, true, StatePlaying},
		{"ended without queue idles", StatePlaying, domain.EventEnded, false, StateIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := transition(tt.state, tt.ev, tt.queued)
			if got != tt.want {
				t.Errorf("transition(%v, %v, %v) = %v, want %v", tt.state, tt.ev, tt.queued, got, tt.want)
			}
		})
	}
}
