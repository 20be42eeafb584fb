package voice

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"

	"github.com/voxlive/voxlive/pkg/audio/capture"
	"github.com/voxlive/voxlive/pkg/audio/pcm"
	"github.com/voxlive/voxlive/pkg/audio/playback"
	"github.com/voxlive/voxlive/pkg/buffer"
	"github.com/voxlive/voxlive/pkg/live"
)

// ErrState is returned by Start when the session is already starting
// or running.
var ErrState = errors.New("voice: session already started")

// defaultQueueSize bounds the outbound frame queue. At 256 ms per
// frame this is well over a minute of backlog; a full queue means the
// connection is dead and dropping is correct.
const defaultQueueSize = 64

// State is the lifecycle state of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Transport is the duplex stream to the remote service.
// *live.Session implements it.
type Transport interface {
	SendAudio(pcm []byte) error
	Events() iter.Seq2[*live.ServerEvent, error]
	Close() error
}

// Capture is the microphone chain. *capture.Chain implements it.
type Capture interface {
	Start(onFrame func(capture.Frame)) error
	Stop()
}

// Player is the playback scheduler. *playback.Scheduler implements it.
type Player interface {
	Enqueue(buf *playback.Buffer) (*playback.Handle, error)
	Interrupt()
	Shutdown()
}

// Config wires a Session to its collaborators. All three factories
// are required; each Start invokes them to build one fresh set.
type Config struct {
	// Connect opens the duplex stream.
	Connect func(ctx context.Context) (Transport, error)

	// NewCapture builds the microphone chain.
	NewCapture func() (Capture, error)

	// NewPlayer builds the playback scheduler.
	NewPlayer func() (Player, error)

	// QueueSize bounds the outbound frame queue.
	// Defaults to defaultQueueSize.
	QueueSize int

	// OnEvent, when set, observes every server event after the
	// session has applied it. Must not block.
	OnEvent func(*live.ServerEvent)
}

// run is the resource set of one Start..Stop cycle.
type run struct {
	transport Transport
	capture   Capture
	player    Player
	sendQ     *buffer.Queue[[]byte]
}

// Session is one live voice conversation. The zero lifecycle is
// Start, talk, Stop; a stopped session can be started again.
type Session struct {
	cfg Config

	mu    sync.Mutex
	state State
	gen   uint64
	cur   *run
}

// New creates a Session in the disconnected state.
func New(cfg Config) *Session {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	return &Session{cfg: cfg}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start builds the playback scheduler, acquires the microphone and
// connects to the remote service, in that order. Microphone frames
// captured before the connection is up are dropped. A failure to
// acquire local hardware releases everything already started and
// returns the session to the disconnected state; a failure to open
// the remote session moves it to the error state instead. Either way
// Start can be called again afterwards.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisconnected && s.state != StateError {
		s.mu.Unlock()
		return ErrState
	}
	// gen identifies this Start attempt. Stop and later Starts bump
	// it, so a stale attempt resolving out of order cannot install
	// its resources over a newer run's.
	s.gen++
	g := s.gen
	s.state = StateConnecting
	s.mu.Unlock()

	player, err := s.cfg.NewPlayer()
	if err != nil {
		s.failStart(g, StateDisconnected)
		return err
	}

	mic, err := s.cfg.NewCapture()
	if err != nil {
		player.Shutdown()
		s.failStart(g, StateDisconnected)
		return err
	}

	r := &run{
		player:  player,
		capture: mic,
		sendQ:   buffer.NewQueue[[]byte](s.cfg.QueueSize),
	}

	if err := mic.Start(func(f capture.Frame) { s.onFrame(r, f) }); err != nil {
		player.Shutdown()
		s.failStart(g, StateDisconnected)
		return err
	}

	transport, err := s.cfg.Connect(ctx)
	if err != nil {
		mic.Stop()
		r.sendQ.Close()
		player.Shutdown()
		s.failStart(g, StateError)
		return err
	}
	r.transport = transport

	s.mu.Lock()
	if s.gen != g || s.state != StateConnecting {
		// Stop or another Start raced the connect; this attempt no
		// longer owns the session.
		s.mu.Unlock()
		s.release(r)
		return ErrState
	}
	s.cur = r
	s.state = StateConnected
	s.mu.Unlock()

	go s.sendLoop(r)
	go s.eventLoop(r)
	return nil
}

// Stop tears the session down from any state. Safe to call multiple
// times and concurrently with a failing session.
func (s *Session) Stop() {
	s.mu.Lock()
	r := s.cur
	s.cur = nil
	s.gen++
	s.state = StateDisconnected
	s.mu.Unlock()

	if r != nil {
		s.release(r)
	}
}

// failStart moves a failed Start attempt to final, unless a Stop or a
// newer Start already took the session over.
func (s *Session) failStart(g uint64, final State) {
	s.mu.Lock()
	if s.gen == g && s.state == StateConnecting {
		s.state = final
	}
	s.mu.Unlock()
}

// teardown releases r and moves to final, unless another teardown or
// a restart already took ownership of the session.
func (s *Session) teardown(r *run, final State) {
	s.mu.Lock()
	if s.cur != r {
		s.mu.Unlock()
		return
	}
	s.cur = nil
	s.state = final
	s.mu.Unlock()

	s.release(r)
}

// release disconnects in fixed order: remote stream, microphone,
// playback. Every step runs even if an earlier one fails.
func (s *Session) release(r *run) {
	if r.transport != nil {
		if err := r.transport.Close(); err != nil {
			slog.Warn("voice: close transport", "error", err)
		}
	}
	r.capture.Stop()
	r.sendQ.Close()
	r.player.Shutdown()
}

// onFrame is the microphone callback. It never blocks: frames that
// cannot be forwarded are dropped.
func (s *Session) onFrame(r *run, f capture.Frame) {
	s.mu.Lock()
	connected := s.state == StateConnected && s.cur == r
	s.mu.Unlock()
	if !connected {
		slog.Debug("voice: dropping frame, not connected")
		return
	}
	if !r.sendQ.TryAdd(pcm.EncodeSamples(f)) {
		slog.Debug("voice: send queue full, dropping frame")
	}
}

// sendLoop drains the outbound queue into the transport.
func (s *Session) sendLoop(r *run) {
	for {
		data, err := r.sendQ.Next()
		if err != nil {
			return
		}
		if err := r.transport.SendAudio(data); err != nil {
			// The event loop observes the broken connection and
			// tears the session down.
			slog.Debug("voice: send audio", "error", err)
			return
		}
	}
}

// eventLoop applies server events until the stream ends. A stream
// error tears down to StateError; a clean close to StateDisconnected.
func (s *Session) eventLoop(r *run) {
	for event, err := range r.transport.Events() {
		if err != nil {
			slog.Error("voice: session failed", "error", err)
			s.teardown(r, StateError)
			return
		}
		s.handleEvent(r, event)
		if s.cfg.OnEvent != nil {
			s.cfg.OnEvent(event)
		}
	}
	s.teardown(r, StateDisconnected)
}

func (s *Session) handleEvent(r *run, event *live.ServerEvent) {
	if event.Interrupted {
		r.player.Interrupt()
	}
	if event.Audio != nil {
		buf, err := playback.DecodeBuffer(event.Audio, event.SampleRate, event.Channels)
		if err != nil {
			slog.Warn("voice: dropping audio chunk", "error", err)
		} else if _, err := r.player.Enqueue(buf); err != nil {
			slog.Debug("voice: enqueue", "error", err)
		}
	}
	if event.GoAway {
		slog.Info("voice: server going away")
	}
}
