package capture

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/voxlive/voxlive/pkg/audio/pcm"
	"github.com/voxlive/voxlive/pkg/audio/resampler"
)

// ErrPermissionDenied indicates microphone access was refused or no
// input device exists.
var ErrPermissionDenied = errors.New("capture: permission denied")

// ErrStarted is returned by Start while the chain is already running.
var ErrStarted = errors.New("capture: already started")

// DefaultFrameSize is the fixed frame length in samples (256 ms at
// 16 kHz).
const DefaultFrameSize = 4096

// Frame is one fixed-length block of mono float samples in [-1, 1]
// at the chain's target rate. Frames are handed to the callback once
// and never reused.
type Frame []float32

// Device is a microphone stream delivering little-endian PCM16 bytes.
type Device interface {
	io.ReadCloser
	Format() pcm.Format
}

// Config configures a capture Chain.
type Config struct {
	// Format is the target format of emitted frames.
	// Defaults to pcm.L16Mono16K.
	Format pcm.Format

	// FrameSize is the frame length in samples.
	// Defaults to DefaultFrameSize.
	FrameSize int

	// OpenDevice opens the microphone. Defaults to the PortAudio
	// input device.
	OpenDevice func() (Device, error)
}

// Chain owns the input device and framing stage for one session.
type Chain struct {
	cfg Config

	mu      sync.Mutex
	device  Device
	rs      *resampler.Resampler
	running bool
	done    chan struct{}
}

// New creates a Chain. No resources are acquired until Start.
func New(cfg Config) *Chain {
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = DefaultFrameSize
	}
	if cfg.OpenDevice == nil {
		cfg.OpenDevice = openDefaultDevice
	}
	return &Chain{cfg: cfg}
}

// Start acquires the microphone and begins emitting frames to
// onFrame, continuously, until Stop. Returns an error wrapping
// ErrPermissionDenied when no input device is available.
func (c *Chain) Start(onFrame func(Frame)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrStarted
	}

	device, err := c.cfg.OpenDevice()
	if err != nil {
		if isNoDevice(err) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return fmt.Errorf("capture: open device: %w", err)
	}

	var src io.Reader = device
	if device.Format() != c.cfg.Format {
		rs, err := resampler.New(device, device.Format(), c.cfg.Format)
		if err != nil {
			device.Close()
			return fmt.Errorf("capture: %w", err)
		}
		c.rs = rs
		src = rs
	}

	c.device = device
	c.running = true
	c.done = make(chan struct{})
	go c.readLoop(src, onFrame, c.done)
	return nil
}

// readLoop accumulates the byte stream into fixed-size frames. It
// exits when the device is closed out from under it.
func (c *Chain) readLoop(src io.Reader, onFrame func(Frame), done chan struct{}) {
	defer close(done)

	buf := make([]byte, c.cfg.FrameSize*2)
	fill := 0
	for {
		n, err := src.Read(buf[fill:])
		fill += n
		if fill == len(buf) {
			onFrame(Frame(pcm.DecodeSamples(buf)))
			fill = 0
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) && !c.stopped() {
				slog.Debug("capture: read", "error", err)
			}
			return
		}
	}
}

func (c *Chain) stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.running
}

// Stop disconnects the framing stage and releases the device. Safe to
// call multiple times and before Start. Every release step runs even
// if an earlier one fails.
func (c *Chain) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	device := c.device
	rs := c.rs
	done := c.done
	c.device = nil
	c.rs = nil
	c.mu.Unlock()

	if rs != nil {
		rs.CloseWithError(io.ErrClosedPipe)
	}
	if err := device.Close(); err != nil {
		slog.Warn("capture: close device", "error", err)
	}
	<-done
}
