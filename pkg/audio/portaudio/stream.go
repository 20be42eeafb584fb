package portaudio

import (
	"io"
	"sync"
	"time"

	"github.com/voxlive/voxlive/pkg/audio/pcm"
)

// InputStream captures audio from the default input device.
type InputStream struct {
	raw    *rawStream
	format pcm.Format
	frames int

	mu       sync.Mutex
	leftover []byte
	closed   bool
}

// OpenInput opens a started capture stream reading format audio in
// blocks of bufferDuration.
func OpenInput(format pcm.Format, bufferDuration time.Duration) (*InputStream, error) {
	frames := format.SamplesInDuration(bufferDuration)
	raw, err := openRaw(format.Channels(), 0, float64(format.SampleRate()), frames)
	if err != nil {
		return nil, err
	}
	return &InputStream{raw: raw, format: format, frames: frames}, nil
}

// Format returns the stream's PCM format.
func (s *InputStream) Format() pcm.Format { return s.format }

// Read fills p with captured little-endian PCM16 bytes, blocking
// until a hardware block is available. Returns io.EOF after Close.
func (s *InputStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.leftover) > 0 {
		n := copy(p, s.leftover)
		s.leftover = s.leftover[n:]
		return n, nil
	}

	if s.closed {
		return 0, io.EOF
	}

	samples, err := s.raw.read(s.frames)
	if err != nil {
		if s.closed {
			return 0, io.EOF
		}
		return 0, err
	}

	data := make([]byte, len(samples)*2)
	for i, v := range samples {
		data[i*2] = byte(v)
		data[i*2+1] = byte(v >> 8)
	}
	n := copy(p, data)
	if n < len(data) {
		s.leftover = data[n:]
	}
	return n, nil
}

// Close stops and releases the stream. Idempotent.
func (s *InputStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.raw.close()
}

// OutputStream plays audio on the default output device.
type OutputStream struct {
	raw    *rawStream
	format pcm.Format
	frames int

	mu     sync.Mutex
	closed bool
}

// OpenOutput opens a started playback stream writing format audio in
// blocks of bufferDuration.
func OpenOutput(format pcm.Format, bufferDuration time.Duration) (*OutputStream, error) {
	frames := format.SamplesInDuration(bufferDuration)
	raw, err := openRaw(0, format.Channels(), float64(format.SampleRate()), frames)
	if err != nil {
		return nil, err
	}
	return &OutputStream{raw: raw, format: format, frames: frames}, nil
}

// Format returns the stream's PCM format.
func (s *OutputStream) Format() pcm.Format { return s.format }

// WriteSamples plays the given samples, blocking until the hardware
// has accepted them. Writes of at most one hardware block keep the
// caller responsive to interruption.
func (s *OutputStream) WriteSamples(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}

	for len(samples) > 0 {
		n := min(len(samples), s.frames*s.format.Channels())
		if err := s.raw.write(samples[:n]); err != nil {
			return err
		}
		samples = samples[n:]
	}
	return nil
}

// Close stops and releases the stream. Idempotent.
func (s *OutputStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.raw.close()
}
