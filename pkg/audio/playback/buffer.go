package playback

import (
	"errors"
	"fmt"
	"time"

	"github.com/voxlive/voxlive/pkg/audio/pcm"
)

// ErrFormat indicates a malformed inbound audio payload.
var ErrFormat = errors.New("playback: format")

// Buffer is a decoded sequence of float samples ready for scheduling.
// Once enqueued it is owned by the Scheduler until its scheduled end.
type Buffer struct {
	// Samples are interleaved float samples in [-1, 1].
	Samples []float32

	// SampleRate is the declared rate in Hz.
	SampleRate int

	// Channels is the declared interleaved channel count.
	Channels int
}

// DecodeBuffer interprets data as interleaved little-endian 16-bit
// PCM at the declared sample rate and channel count. Returns an error
// wrapping ErrFormat when the byte length is not a multiple of
// 2 × channels.
func DecodeBuffer(data []byte, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: rate=%d channels=%d", ErrFormat, sampleRate, channels)
	}
	if len(data)%(2*channels) != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-channel samples", ErrFormat, len(data), channels)
	}
	return &Buffer{
		Samples:    pcm.DecodeSamples(data),
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// Duration returns the play time of the buffer.
func (b *Buffer) Duration() time.Duration {
	frames := len(b.Samples) / b.Channels
	return time.Duration(frames) * time.Second / time.Duration(b.SampleRate)
}
