package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/littlstar/lstar/internal/domain"
)

var errNothingLoaded = errors.New("no media loaded")

// process is a running player we may stop later
type process interface {
	Stop() error
}

// startFunc launches name with args without waiting for it
type startFunc func(name string, args ...string) (process, error)

type cmdProcess struct {
	cmd *exec.Cmd
}

func (p *cmdProcess) Stop() error {
	if p.cmd.Process == nil {
		return nil
	}
	// startCommand's goroutine reaps the process
	return p.cmd.Process.Kill()
}

// detached is a player handed off to the OS (open -a, xdg-open); it cannot be stopped
type detached struct{}

func (detached) Stop() error { return nil }

func startCommand(name string, args ...string) (process, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	go cmd.Wait()
	return &cmdProcess{cmd: cmd}, nil
}

// player describes how to start a 360-capable external player
type player struct {
	offsetFlag string              // e.g. "--start=", or "-ss " when the value is a separate arg
	platforms  map[string][]string // Platform -> commands to try in order; "open-a:App" uses macOS open
}

var players = map[string]player{
	"mpv": {
		offsetFlag: "--start=",
		platforms: map[string][]string{
			"darwin": {"mpv"}, "linux": {"mpv"}, "windows": {"mpv"},
		},
	},
	"vlc": {
		offsetFlag: "--start-time=",
		platforms: map[string][]string{
			"darwin": {"vlc", "open-a:VLC"}, "linux": {"vlc"}, "windows": {"vlc"},
		},
	},
	"iina": {
		offsetFlag: "--mpv-start=",
		platforms: map[string][]string{
			"darwin": {"open-a:IINA"},
		},
	},
	"celluloid": {
		offsetFlag: "--mpv-start=",
		platforms: map[string][]string{
			"linux": {"celluloid"},
		},
	},
	"potplayer": {
		offsetFlag: "/seek=",
		platforms: map[string][]string{
			"windows": {"PotPlayerMini64.exe", "PotPlayerMini.exe"},
		},
	},
}

// candidatePlayers is the detection order per platform
var candidatePlayers = map[string][]string{
	"darwin":  {"iina", "vlc", "mpv"},
	"linux":   {"mpv", "celluloid", "vlc"},
	"windows": {"vlc", "mpv", "potplayer"},
}

// Launcher drives an external player as a domain.PlayerSurface. Play starts
// the player at an offset; Pause stops it and remembers where it was; Seek
// restarts it at the new position when it is running.
type Launcher struct {
	command   string   // Configured player, empty to auto-detect
	args      []string // Extra arguments for the player
	startFlag string   // Offset flag, detected from the command when empty
	logger    *slog.Logger

	start    startFunc
	lookPath func(string) (string, error)
	now      func() time.Time

	mu        sync.Mutex
	url       string
	running   process
	position  time.Duration
	startedAt time.Time
}

var _ domain.PlayerSurface = (*Launcher)(nil)

// NewLauncher creates a launcher for the configured player
func NewLauncher(cfg PlayerConfig, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}

	flag := cfg.StartFlag
	if flag == "" && cfg.Command != "" {
		if p, ok := players[playerName(cfg.Command)]; ok {
			flag = p.offsetFlag
			logger.Debug("auto-detected player offset flag", "player", playerName(cfg.Command), "flag", flag)
		}
	}

	return &Launcher{
		command:   cfg.Command,
		args:      append([]string(nil), cfg.Args...),
		startFlag: flag,
		logger:    logger,
		start:     startCommand,
		lookPath:  exec.LookPath,
		now:       time.Now,
	}
}

func playerName(command string) string {
	base := filepath.Base(command)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Load selects the media to play and stops anything already playing
func (l *Launcher) Load(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if url == "" {
		return domain.ValidationError("load", errors.New("media URL is empty"))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
	l.url = url
	l.position = 0
	return nil
}

// Play starts the player at the given offset
func (l *Launcher) Play(at time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.url == "" {
		return domain.StateError("play", errNothingLoaded)
	}
	l.stopLocked()
	return l.launchLocked(at)
}

// Pause stops the player, keeping the position it reached
func (l *Launcher) Pause() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running == nil {
		return nil
	}
	l.position += l.now().Sub(l.startedAt)
	return l.stopLocked()
}

// Seek moves to a new position, restarting the player if it is running
func (l *Launcher) Seek(to time.Duration) error {
	if to < 0 {
		to = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.url == "" {
		return domain.StateError("seek", errNothingLoaded)
	}
	if l.running == nil {
		l.position = to
		return nil
	}
	l.stopLocked()
	return l.launchLocked(to)
}

// Position estimates the playback position from wall-clock time
func (l *Launcher) Position() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running == nil {
		return l.position
	}
	return l.position + l.now().Sub(l.startedAt)
}

func (l *Launcher) stopLocked() error {
	if l.running == nil {
		return nil
	}
	err := l.running.Stop()
	l.running = nil
	if err != nil {
		l.logger.Warn("failed to stop player", "error", err)
	}
	return err
}

func (l *Launcher) launchLocked(at time.Duration) error {
	var (
		proc process
		err  error
	)
	switch {
	case l.command != "":
		proc, err = l.launchConfigured(l.url, at)
	default:
		proc, err = l.detectAndLaunch(l.url, at)
		if err != nil {
			l.logger.Info("no candidate players found, using system default")
			proc, err = l.launchDefault(l.url)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to launch player: %w", err)
	}
	l.running = proc
	l.position = at
	l.startedAt = l.now()
	return nil
}

// offsetArgs renders the start flag; a trailing space means a separate value arg
func offsetArgs(flag string, at time.Duration) []string {
	if at <= 0 || flag == "" {
		return nil
	}
	secs := fmt.Sprintf("%.0f", at.Seconds())
	if strings.HasSuffix(flag, " ") {
		return []string{strings.TrimSuffix(flag, " "), secs}
	}
	return []string{flag + secs}
}

func (l *Launcher) launchConfigured(url string, at time.Duration) (process, error) {
	args := append([]string{}, l.args...)
	if at > 0 && l.startFlag == "" {
		l.logger.Warn("cannot set start offset - unknown player, configure start_flag in config",
			"command", l.command, "offset", at)
	}
	args = append(args, offsetArgs(l.startFlag, at)...)

	// GUI apps on macOS are often not on PATH
	if runtime.GOOS == "darwin" {
		if _, err := l.lookPath(l.command); err != nil {
			return l.openApp(l.command, url, args)
		}
	}

	l.logger.Info("launching player", "command", l.command, "args", args, "url", url)
	return l.start(l.command, append(args, url)...)
}

func (l *Launcher) detectAndLaunch(url string, at time.Duration) (process, error) {
	candidates, ok := candidatePlayers[runtime.GOOS]
	if !ok {
		candidates = candidatePlayers["linux"]
	}

	for _, name := range candidates {
		p := players[name]
		for _, path := range p.platforms[runtime.GOOS] {
			args := offsetArgs(p.offsetFlag, at)

			var (
				proc process
				err  error
			)
			if app, ok := strings.CutPrefix(path, "open-a:"); ok {
				proc, err = l.openApp(app, url, args)
			} else if _, err = l.lookPath(path); err == nil {
				proc, err = l.start(path, append(args, url)...)
			}

			if err == nil {
				l.logger.Info("launched with detected player", "player", name, "path", path)
				return proc, nil
			}
			l.logger.Debug("launch path not available", "player", name, "path", path, "error", err)
		}
	}
	return nil, errors.New("no candidate players found")
}

// openApp uses macOS open -a, which hands the player to launchd
func (l *Launcher) openApp(app, url string, args []string) (process, error) {
	cmdArgs := []string{"-n", "-a", app}
	if len(args) > 0 {
		cmdArgs = append(cmdArgs, "--args")
		cmdArgs = append(cmdArgs, args...)
	}
	cmdArgs = append(cmdArgs, url)

	if err := exec.Command("open", cmdArgs...).Run(); err != nil {
		return nil, err
	}
	return detached{}, nil
}

// launchDefault opens the URL with the system handler
func (l *Launcher) launchDefault(url string) (process, error) {
	var name string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		name, args = "open", []string{url}
	case "windows":
		name, args = "cmd", []string{"/c", "start", "", url}
	default:
		name, args = "xdg-open", []string{url}
	}

	l.logger.Info("launching with system default", "os", runtime.GOOS, "url", url)
	if _, err := l.start(name, args...); err != nil {
		return nil, err
	}
	return detached{}, nil
}
