package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"

	"github.com/tubevault/tubevault/internal/domain"
)

// watchURLBase turns an opaque catalog ID into a URL external players
// can resolve.
const watchURLBase = "https://www.youtube.com/watch?v="

// candidatePlayers defines the preferred player order for each platform
// when no command is configured.
var candidatePlayers = map[string][]string{
	"darwin":  {"mpv", "vlc"},
	"linux":   {"mpv", "celluloid", "vlc"},
	"windows": {"mpv", "vlc"},
}

// ProcessPlayer implements domain.Player by launching an external player
// process per item and mapping the process lifecycle onto player events:
// a successful start delivers ready, and process exit delivers ended. A
// detached process offers no pause/seek control, so those capabilities
// report domain.ErrUnsupported and progress reads as zero.
type ProcessPlayer struct {
	command string
	args    []string
	logger  *slog.Logger

	mu      sync.Mutex
	handler func(domain.PlayerEvent)
	cmd     *exec.Cmd
}

// NewProcessPlayer creates a player around the configured command,
// auto-detecting an installed player when command is empty.
func NewProcessPlayer(command string, args []string, logger *slog.Logger) (*ProcessPlayer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if command == "" {
		detected, err := detectPlayer()
		if err != nil {
			return nil, err
		}
		command = detected
		logger.Debug("auto-detected player", "command", command)
	}
	return &ProcessPlayer{command: command, args: args, logger: logger}, nil
}

// detectPlayer returns the first candidate player found on PATH.
func detectPlayer() (string, error) {
	for _, candidate := range candidatePlayers[runtime.GOOS] {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no media player found; set player.command in config")
}

func (p *ProcessPlayer) SetHandler(h func(domain.PlayerEvent)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

// Load kills any running process and launches the player against the
// item's watch URL. Events are delivered off the caller's goroutine.
func (p *ProcessPlayer) Load(mediaID string) error {
	p.mu.Lock()
	p.killLocked()

	args := append(append([]string(nil), p.args...), watchURLBase+mediaID)
	cmd := exec.Command(p.command, args...)
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("launch %s: %w", p.command, err)
	}
	p.cmd = cmd
	p.mu.Unlock()

	p.logger.Debug("launched player", "command", p.command, "mediaID", mediaID, "pid", cmd.Process.Pid)

	go p.emit(domain.EventReady)
	go p.watch(cmd)
	return nil
}

// watch waits for the process and reports ended, unless the process was
// already replaced or stopped.
func (p *ProcessPlayer) watch(cmd *exec.Cmd) {
	err := cmd.Wait()

	p.mu.Lock()
	current := p.cmd == cmd
	if current {
		p.cmd = nil
	}
	p.mu.Unlock()

	if !current {
		return
	}
	if err != nil {
		p.logger.Debug("player process exited", "error", err)
	}
	p.emit(domain.EventEnded)
}

// Play reports playing; a freshly launched process plays on its own.
func (p *ProcessPlayer) Play() error {
	go p.emit(domain.EventPlaying)
	return nil
}

func (p *ProcessPlayer) Pause() error {
	return domain.ErrUnsupported
}

func (p *ProcessPlayer) Seek(float64) error {
	return domain.ErrUnsupported
}

func (p *ProcessPlayer) Duration() (float64, error) {
	return 0, nil
}

func (p *ProcessPlayer) Position() (float64, error) {
	return 0, nil
}

// Stop kills the running process, if any.
func (p *ProcessPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()
	return nil
}

// killLocked detaches and kills the current process. Clearing cmd first
// keeps the watcher from reporting the kill as a natural ended.
func (p *ProcessPlayer) killLocked() {
	if p.cmd == nil {
		return
	}
	cmd := p.cmd
	p.cmd = nil
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

func (p *ProcessPlayer) emit(ev domain.PlayerEvent) {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h != nil {
		h(ev)
	}
}
