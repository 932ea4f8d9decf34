package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/kiwis08/record/internal/fmedia"
)

// Invoker abstracts the recorder-binary boundary so tests can substitute a
// fake process runner.
type Invoker interface {
	// Start spawns the binary and returns once the process handle exists,
	// without waiting for output or exit.
	Start(args []string) error
	// Run spawns the binary, forwards its stdout line-by-line to sink (which
	// may be nil) and waits for it to exit.
	Run(args []string, sink func(line string)) error
}

// StartConfig describes one recording to begin.
type StartConfig struct {
	Encoder    Encoder
	SampleRate int
	Channels   int
	Device     string // capture device id from ListDevices, empty for default
	Bitrate    int    // bits per second, zero for the encoder default
}

// session is the per-id recording state. Mutations come only from
// caller-serialized operations on the id, but Status and Subscribe may read
// concurrently with them, so state, outputPath and bcast are guarded by mu.
type session struct {
	mu         sync.RWMutex
	state      State
	outputPath string
	pipeName   string
	bcast      *broadcaster
}

// snapshot returns a consistent view of the session's state and output path.
func (s *session) snapshot() (State, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.outputPath
}

// Recorder drives recording sessions through the external recorder binary.
//
// Control operations on a single session id must be serialized by the
// caller; the Recorder never overlaps process invocations for one id on its
// own. Status and Subscribe are read-only and safe to call concurrently with
// them. Sessions with distinct ids are independent and may progress
// concurrently.
type Recorder struct {
	inv        Invoker
	pipePrefix string

	mu       sync.RWMutex // guards sessions
	sessions map[string]*session
}

// New creates a Recorder. pipePrefix namespaces the per-session control pipes
// so concurrent sessions never address each other's process.
func New(inv Invoker, pipePrefix string) *Recorder {
	return &Recorder{
		inv:        inv,
		pipePrefix: pipePrefix,
		sessions:   make(map[string]*session),
	}
}

// Start begins a new recording for the session, writing to path. Any prior
// recording on the id is stopped first, a stale file at path is removed, and
// the requested encoder and channel count are validated before any recorder
// process is spawned. State becomes Recording as soon as the process handle
// exists; the recording itself runs in the background until Stop or Cancel.
func (r *Recorder) Start(id string, cfg StartConfig, path string) error {
	s := r.session(id)

	if _, err := r.stopSession(s); err != nil {
		return fmt.Errorf("failed to stop previous recording: %w", err)
	}

	if err := removeIfExists(path); err != nil {
		return fmt.Errorf("failed to remove stale output file: %w", err)
	}

	if !IsEncoderSupported(cfg.Encoder) {
		return &UnsupportedEncoderError{Encoder: cfg.Encoder}
	}
	layout, ok := channelLayouts[cfg.Channels]
	if !ok {
		return &UnsupportedChannelLayoutError{Channels: cfg.Channels}
	}

	args := recordArgs(s.pipeName, cfg, layout, path)
	if err := r.inv.Start(args); err != nil {
		return err
	}

	s.mu.Lock()
	s.outputPath = path
	s.mu.Unlock()
	r.setState(s, StateRecording)

	slog.Info("Recording started", "session", id, "output", path, "encoder", cfg.Encoder)
	return nil
}

// Pause suspends a running recording. Anything but a Recording session is
// left untouched.
func (r *Recorder) Pause(id string) error {
	s := r.session(id)
	if st, _ := s.snapshot(); st != StateRecording {
		return nil
	}
	if err := r.globCmd(s, "pause"); err != nil {
		return err
	}
	r.setState(s, StatePaused)
	return nil
}

// Resume continues a paused recording. Anything but a Paused session is left
// untouched.
func (r *Recorder) Resume(id string) error {
	s := r.session(id)
	if st, _ := s.snapshot(); st != StatePaused {
		return nil
	}
	if err := r.globCmd(s, "unpause"); err != nil {
		return err
	}
	r.setState(s, StateRecording)
	return nil
}

// Stop ends the session's recording and returns the finished file path, or
// "" when nothing was recording. The session always ends up Stopped. A
// control command that finds no running instance is not an error here.
func (r *Recorder) Stop(id string) (string, error) {
	s := r.session(id)
	path, err := r.stopSession(s)
	if err != nil {
		return "", err
	}
	if path != "" {
		slog.Info("Recording stopped", "session", id, "output", path)
	}
	return path, nil
}

// Cancel stops the session and discards its output file entirely.
func (r *Recorder) Cancel(id string) error {
	path, err := r.Stop(id)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	slog.Info("Recording cancelled, discarding output", "session", id, "output", path)
	return os.Remove(path)
}

// ListDevices enumerates the capture devices the recorder binary can see.
// Every call is a fresh process invocation; listings are never cached.
func (r *Recorder) ListDevices() ([]fmedia.Device, error) {
	var lines []string
	err := r.inv.Run([]string{"--list-dev"}, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return fmedia.ParseDevices(lines), nil
}

// Status returns the session's current state and output path.
func (r *Recorder) Status(id string) (State, string) {
	return r.session(id).snapshot()
}

// Subscribe attaches to the session's state-transition stream. The stream is
// replay-free: only transitions after the call are delivered. Closing the
// last subscription tears the underlying stream down; a later Subscribe
// builds a fresh one.
func (r *Recorder) Subscribe(id string) *Subscription {
	s := r.session(id)

	s.mu.Lock()
	if s.bcast == nil {
		s.bcast = &broadcaster{}
	}
	b := s.bcast
	s.mu.Unlock()

	ch := b.add()
	return &Subscription{
		C: ch,
		cancel: func() {
			if b.remove(ch) {
				s.mu.Lock()
				if s.bcast == b {
					s.bcast = nil
				}
				s.mu.Unlock()
			}
		},
	}
}

// stopSession sends the stop-then-quit control sequence and unconditionally
// leaves the session Stopped with its output path cleared. It returns the
// path that was active, or "" when no instance was running behind the pipe.
func (r *Recorder) stopSession(s *session) (string, error) {
	_, path := s.snapshot()

	err := r.globCmd(s, "stop")
	if errors.Is(err, fmedia.ErrTargetNotFound) {
		path = ""
		err = nil
	}
	if err == nil {
		if qerr := r.globCmd(s, "quit"); qerr != nil && !errors.Is(qerr, fmedia.ErrTargetNotFound) {
			err = qerr
		}
	}

	s.mu.Lock()
	s.outputPath = ""
	s.mu.Unlock()
	r.setState(s, StateStopped)

	if err != nil {
		return "", err
	}
	return path, nil
}

// globCmd addresses the session's running recorder instance through its
// control pipe.
func (r *Recorder) globCmd(s *session, cmd string) error {
	return r.inv.Run([]string{
		"--globcmd=" + cmd,
		"--globcmd.pipe-name=" + s.pipeName,
	}, nil)
}

// setState transitions the session and notifies subscribers. Setting the
// current state again is a no-op: no event is published.
func (r *Recorder) setState(s *session, next State) {
	s.mu.Lock()
	if s.state == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	b := s.bcast
	s.mu.Unlock()

	if b != nil {
		b.publish(next)
	}
}

// session returns the per-id state, creating it on first use. The pipe name
// is derived deterministically from the id.
func (r *Recorder) session(id string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = &session{
			state:    StateStopped,
			pipeName: fmt.Sprintf("%s_%s", r.pipePrefix, id),
		}
		r.sessions[id] = s
	}
	return s
}

// recordArgs builds the argument vector for one recording invocation.
func recordArgs(pipeName string, cfg StartConfig, layout, path string) []string {
	args := []string{
		"--record",
		"--notui",
		"--background",
		"--globcmd.pipe-name=" + pipeName,
		"--out=" + path,
		fmt.Sprintf("--rate=%d", cfg.SampleRate),
		"--channels=" + layout,
	}
	if cfg.Device != "" {
		args = append(args, "--dev-capture="+cfg.Device)
	}
	return append(args, encoderArgs(cfg.Encoder, cfg.Bitrate)...)
}

func removeIfExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return os.Remove(path)
}
