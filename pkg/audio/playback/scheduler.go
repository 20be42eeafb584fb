package playback

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/voxlive/voxlive/pkg/buffer"
)

// defaultQuantum is the scheduling granularity: the longest an
// in-flight buffer keeps playing after an interrupt, and the block
// size pushed to the output device.
const defaultQuantum = 20 * time.Millisecond

// ErrShutdown is returned by Enqueue after Shutdown.
var ErrShutdown = errors.New("playback: scheduler shut down")

// Output is the hardware playback device. WriteSamples blocks until
// the device has accepted the samples.
type Output interface {
	WriteSamples(samples []int16) error
	Close() error
}

// Handle maps one enqueued Buffer to its place on the output clock.
// It lives in the scheduler's active set from Enqueue until natural
// completion or a forced stop.
type Handle struct {
	id    uint64
	buf   *Buffer
	start time.Duration

	cancel chan struct{}
	once   sync.Once
}

// Start returns the absolute start time assigned on the output clock.
func (h *Handle) Start() time.Duration { return h.start }

func (h *Handle) stop() {
	h.once.Do(func() { close(h.cancel) })
}

func (h *Handle) stopped() bool {
	select {
	case <-h.cancel:
		return true
	default:
		return false
	}
}

// Scheduler owns an output device and its clock and plays enqueued
// buffers back-to-back. All methods are safe for concurrent use.
type Scheduler struct {
	out     Output
	clock   Clock
	quantum time.Duration

	queue *buffer.Queue[*Handle]

	mu        sync.Mutex
	nextStart time.Duration
	handles   map[uint64]*Handle
	lastID    uint64
	closed    bool

	loopDone chan struct{}
	shutOnce sync.Once
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock substitutes the output clock. Tests use this to drive
// time deterministically.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithQuantum sets the scheduling granularity.
func WithQuantum(d time.Duration) Option {
	return func(s *Scheduler) { s.quantum = d }
}

// NewScheduler creates a Scheduler playing on out and starts its
// playback goroutine.
func NewScheduler(out Output, opts ...Option) *Scheduler {
	s := &Scheduler{
		out:      out,
		clock:    NewClock(),
		quantum:  defaultQuantum,
		queue:    buffer.NewQueue[*Handle](256),
		handles:  make(map[uint64]*Handle),
		loopDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

// Enqueue schedules buf to start at max(now, cursor) and advances the
// cursor by the buffer's duration, guaranteeing gapless playback of
// buffers that arrive faster than real time and a silent gap for ones
// that arrive slower.
func (s *Scheduler) Enqueue(buf *Buffer) (*Handle, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrShutdown
	}
	start := max(s.clock.Now(), s.nextStart)
	s.nextStart = start + buf.Duration()
	s.lastID++
	h := &Handle{
		id:     s.lastID,
		buf:    buf,
		start:  start,
		cancel: make(chan struct{}),
	}
	s.handles[h.id] = h
	s.mu.Unlock()

	if err := s.queue.Add(h); err != nil {
		s.remove(h)
		return nil, err
	}
	return h, nil
}

// Interrupt stops every scheduled or in-flight handle, clears the
// active set, and resets the cursor so the next Enqueue starts at the
// clock's current time. Safe to call at any point, including before
// any audio has been enqueued.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, h := range s.handles {
		h.stop()
		delete(s.handles, id)
	}
	s.nextStart = 0
	// Buffers still waiting behind the in-flight one are discarded
	// here rather than drained one Next at a time.
	s.queue.Reset()
}

// Active returns the number of handles currently scheduled or playing.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Shutdown interrupts playback and releases the output device.
// Idempotent.
func (s *Scheduler) Shutdown() {
	s.shutOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.Interrupt()
		s.queue.Close()
		<-s.loopDone
		if err := s.out.Close(); err != nil {
			slog.Debug("playback: close output", "error", err)
		}
	})
}

func (s *Scheduler) run() {
	defer close(s.loopDone)
	for {
		h, err := s.queue.Next()
		if err != nil {
			return
		}
		if h.stopped() {
			s.remove(h)
			continue
		}
		s.play(h)
		s.remove(h)
	}
}

// play waits for the handle's start instant and then streams the
// buffer to the device one quantum at a time, bailing out as soon as
// the handle is stopped.
func (s *Scheduler) play(h *Handle) {
	for {
		wait := h.start - s.clock.Now()
		if wait <= 0 {
			break
		}
		select {
		case <-s.clock.After(wait):
		case <-h.cancel:
			return
		}
	}

	step := h.buf.Channels * int(time.Duration(h.buf.SampleRate)*s.quantum/time.Second)
	if step == 0 {
		step = h.buf.Channels
	}
	for off := 0; off < len(h.buf.Samples); off += step {
		if h.stopped() {
			return
		}
		end := min(off+step, len(h.buf.Samples))
		chunk := make([]int16, end-off)
		for i, v := range h.buf.Samples[off:end] {
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			chunk[i] = int16(v * 32767)
		}
		if err := s.out.WriteSamples(chunk); err != nil {
			// A stopped or closing device is benign here.
			slog.Debug("playback: write", "error", err)
			return
		}
	}
}

func (s *Scheduler) remove(h *Handle) {
	s.mu.Lock()
	delete(s.handles, h.id)
	s.mu.Unlock()
}
