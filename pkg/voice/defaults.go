package voice

import (
	"context"
	"time"

	"github.com/voxlive/voxlive/pkg/audio/capture"
	"github.com/voxlive/voxlive/pkg/audio/pcm"
	"github.com/voxlive/voxlive/pkg/audio/playback"
	"github.com/voxlive/voxlive/pkg/audio/portaudio"
	"github.com/voxlive/voxlive/pkg/live"
)

// outputBlock is the playback device write granularity.
const outputBlock = 20 * time.Millisecond

// DefaultConfig wires a Session to the real collaborators: the Gemini
// Live API for transport, the default PortAudio input at 16 kHz for
// capture and a scheduler over the default PortAudio output at 24 kHz
// for playback.
func DefaultConfig(client *live.Client, connect *live.ConnectConfig) Config {
	return Config{
		Connect: func(ctx context.Context) (Transport, error) {
			return client.Connect(ctx, connect)
		},
		NewCapture: func() (Capture, error) {
			return capture.New(capture.Config{Format: pcm.L16Mono16K}), nil
		},
		NewPlayer: func() (Player, error) {
			out, err := portaudio.OpenOutput(pcm.L16Mono24K, outputBlock)
			if err != nil {
				return nil, err
			}
			return playback.NewScheduler(out), nil
		},
	}
}
