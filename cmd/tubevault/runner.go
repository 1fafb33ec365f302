package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tubevault/tubevault/internal/adapter"
	"github.com/tubevault/tubevault/internal/domain"
	"github.com/tubevault/tubevault/internal/favorites"
	"github.com/tubevault/tubevault/internal/history"
	"github.com/tubevault/tubevault/internal/playback"
	"github.com/tubevault/tubevault/internal/playlist"
	"github.com/tubevault/tubevault/internal/search"
	"github.com/urfave/cli/v3"
)

// Runner binds CLI actions to the underlying services.
type Runner struct {
	config    *adapter.Config
	favorites *favorites.Service
	history   *history.Recorder
	playlists *playlist.Service
	logger    *slog.Logger
	out       io.Writer
}

// RunnerConfig collects the Runner's dependencies.
type RunnerConfig struct {
	Config    *adapter.Config
	Favorites *favorites.Service
	History   *history.Recorder
	Playlists *playlist.Service
	Logger    *slog.Logger
	Out       io.Writer
}

// NewRunner creates a Runner from its dependencies.
func NewRunner(rc RunnerConfig) *Runner {
	out := rc.Out
	if out == nil {
		out = os.Stdout
	}
	return &Runner{
		config:    rc.Config,
		favorites: rc.Favorites,
		history:   rc.History,
		playlists: rc.Playlists,
		logger:    rc.Logger,
		out:       out,
	}
}

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		favoritesCommand(r),
		historyCommand(r),
		playlistCommand(r),
		playCommand(r),
		configCommand(r),
	}
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// itemFromFlags builds a MediaItem from the shared item flags.
func itemFromFlags(cmd *cli.Command) domain.MediaItem {
	return domain.MediaItem{
		ID:       cmd.String("id"),
		Title:    cmd.String("title"),
		Channel:  cmd.String("channel"),
		ThumbURL: cmd.String("thumb"),
	}
}

// === Favorites ===

func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	items, err := r.favorites.List()
	if err != nil {
		return err
	}
	items = search.Filter(items, cmd.String("filter"))

	if len(items) == 0 {
		r.printf("no favorites")
		return nil
	}
	for _, item := range items {
		r.printf("%s\t%s\t%s", item.ID, item.Title, item.Channel)
	}
	return nil
}

func (r *Runner) FavoritesAdd(ctx context.Context, cmd *cli.Command) error {
	item := itemFromFlags(cmd)
	if err := r.favorites.Save(item); err != nil {
		return err
	}
	r.printf("saved favorite %s", item.ID)
	return nil
}

func (r *Runner) FavoritesRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("media ID argument is required")
	}
	if err := r.favorites.Remove(id); err != nil {
		return err
	}
	r.printf("removed favorite %s", id)
	return nil
}

func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	item := itemFromFlags(cmd)
	fav, err := r.favorites.Toggle(item)
	if err != nil {
		return err
	}
	if fav {
		r.printf("%s is now a favorite", item.ID)
	} else {
		r.printf("%s is no longer a favorite", item.ID)
	}
	return nil
}

// === History ===

func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.history.ListRecent()
	if err != nil {
		return err
	}

	if filter := cmd.String("filter"); filter != "" {
		items := make([]domain.MediaItem, len(entries))
		for i, e := range entries {
			items[i] = e.MediaItem
		}
		kept := search.Filter(items, filter)
		keptIDs := make(map[string]bool, len(kept))
		for _, item := range kept {
			keptIDs[item.ID] = true
		}
		filtered := entries[:0]
		for _, e := range entries {
			if keptIDs[e.ID] {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if len(entries) == 0 {
		r.printf("no history")
		return nil
	}
	for _, e := range entries {
		played := time.UnixMilli(e.PlayedAt).Format(time.DateTime)
		r.printf("%s\t%s\t%s", played, e.ID, e.Title)
	}
	return nil
}

// === Playlists ===

func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("playlist name argument is required")
	}
	id, err := r.playlists.Create(name)
	if err != nil {
		return err
	}
	r.printf("created playlist %d (%s)", id, name)
	return nil
}

func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	playlists, err := r.playlists.List()
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		r.printf("no playlists")
		return nil
	}
	for _, p := range playlists {
		r.printf("%d\t%s\t%s", p.ID, p.Name, p.Description())
	}
	return nil
}

func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	p, err := r.playlists.Get(cmd.Uint64("playlist"))
	if err != nil {
		return err
	}
	r.printf("%s (%s)", p.Name, p.Description())
	for i, item := range p.Items {
		r.printf("%d\t%s\t%s", i+1, item.ID, item.Title)
	}
	return nil
}

func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("playlist name argument is required")
	}
	id := cmd.Uint64("playlist")
	if err := r.playlists.Rename(id, name); err != nil {
		return err
	}
	r.printf("renamed playlist %d to %s", id, name)
	return nil
}

func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Uint64("playlist")
	item := itemFromFlags(cmd)
	added, err := r.playlists.AddItem(id, item)
	if err != nil {
		return err
	}
	if !added {
		r.printf("%s is already in playlist %d", item.ID, id)
		return nil
	}
	r.printf("added %s to playlist %d", item.ID, id)
	return nil
}

func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Uint64("playlist")
	mediaID := cmd.String("id")
	if err := r.playlists.RemoveItem(id, mediaID); err != nil {
		return err
	}
	r.printf("removed %s from playlist %d", mediaID, id)
	return nil
}

func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Uint64("playlist")
	if err := r.playlists.Delete(id); err != nil {
		return err
	}
	r.printf("deleted playlist %d", id)
	return nil
}

// === Config ===

// ConfigInit persists the effective configuration so users can edit it.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	if err := adapter.SaveConfig(r.config); err != nil {
		return err
	}
	r.printf("wrote config file")
	return nil
}

func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	r.printf("storage.path\t%s", r.config.Storage.Path)
	r.printf("player.command\t%s", r.config.Player.Command)
	r.printf("history.limit\t%d", r.config.History.Limit)
	r.printf("logging.file\t%s", r.config.Logging.File)
	r.printf("logging.level\t%s", r.config.Logging.Level)
	return nil
}

// === Playback ===

// Play drives the sequencer against the configured external player and
// blocks until playback winds down or the context is cancelled.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	player, err := adapter.NewProcessPlayer(r.config.Player.Command, r.config.Player.Args, r.logger)
	if err != nil {
		return err
	}

	seq := playback.NewSequencer(player, r.playlists, r.history, r.logger)
	defer seq.Close()
	r.playlists.Subscribe(seq)

	if playlistID := cmd.Uint64("playlist"); playlistID != 0 {
		if err := seq.PlayPlaylist(playlistID); err != nil {
			return err
		}
		p, err := r.playlists.Get(playlistID)
		if err == nil {
			r.printf("playing playlist %s (%s)", p.Name, p.Description())
		}
	} else {
		mediaID := cmd.StringArg("id")
		if mediaID == "" {
			return fmt.Errorf("media ID argument or --playlist flag is required")
		}
		if err := seq.PlayItem(domain.MediaItem{ID: mediaID}); err != nil {
			return err
		}
		r.printf("playing %s", mediaID)
	}

	// Poll until the queue winds down to Idle or the user interrupts.
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	var last string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st := seq.Status()
			if st.State == playback.StateIdle {
				return nil
			}
			if st.Current != nil && st.Current.ID != last {
				last = st.Current.ID
				title := st.Current.Title
				if title == "" {
					title = st.Current.ID
				}
				r.printf("now playing: %s", title)
			}
		}
	}
}
