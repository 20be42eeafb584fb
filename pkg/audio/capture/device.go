package capture

import (
	"errors"
	"time"

	"github.com/voxlive/voxlive/pkg/audio/pcm"
	"github.com/voxlive/voxlive/pkg/audio/portaudio"
)

// deviceBlock is the hardware read granularity.
const deviceBlock = 20 * time.Millisecond

// openDefaultDevice opens the default PortAudio input. It asks for
// 16 kHz directly and falls back to the device's common native rate
// of 48 kHz, leaving rate conversion to the chain's resampler.
func openDefaultDevice() (Device, error) {
	in, err := portaudio.OpenInput(pcm.L16Mono16K, deviceBlock)
	if err == nil {
		return in, nil
	}
	if errors.Is(err, portaudio.ErrNoDevice) {
		return nil, err
	}
	return portaudio.OpenInput(pcm.L16Mono48K, deviceBlock)
}

func isNoDevice(err error) bool {
	return errors.Is(err, portaudio.ErrNoDevice)
}
