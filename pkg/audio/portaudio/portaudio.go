package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_stream(void **stream,
                              const PaStreamParameters *inputParams,
                              const PaStreamParameters *outputParams,
                              double sampleRate,
                              unsigned long framesPerBuffer,
                              PaStreamFlags streamFlags) {
    return Pa_OpenStream((PaStream**)stream, inputParams, outputParams, sampleRate,
                         framesPerBuffer, streamFlags, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}

static PaError pa_write_stream(void *stream, const void *buffer, unsigned long frames) {
    return Pa_WriteStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// ErrNoDevice indicates that no usable audio device exists or access
// to it was refused by the host.
var ErrNoDevice = errors.New("portaudio: no device")

var (
	initOnce sync.Once
	initErr  error
)

// paError converts a PortAudio error code to a Go error.
func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return fmt.Errorf("portaudio: %s", C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library. Safe to call multiple
// times.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// Terminate terminates the PortAudio library.
func Terminate() error {
	return paError(C.Pa_Terminate())
}

// DeviceInfo describes one audio device.
type DeviceInfo struct {
	Index             int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	IsDefaultInput    bool
	IsDefaultOutput   bool
}

// Devices returns all available audio devices.
func Devices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}

	defaultInput := int(C.Pa_GetDefaultInputDevice())
	defaultOutput := int(C.Pa_GetDefaultOutputDevice())

	devices := make([]DeviceInfo, 0, count)
	for i := range count {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:             i,
			Name:              C.GoString(info.name),
			MaxInputChannels:  int(info.maxInputChannels),
			MaxOutputChannels: int(info.maxOutputChannels),
			DefaultSampleRate: float64(info.defaultSampleRate),
			IsDefaultInput:    i == defaultInput,
			IsDefaultOutput:   i == defaultOutput,
		})
	}
	return devices, nil
}

// rawStream is a started PortAudio stream with a malloc'd exchange
// buffer for sample transfer across the CGO boundary.
type rawStream struct {
	stream unsafe.Pointer
	buffer unsafe.Pointer
	mu     sync.Mutex
	closed bool
}

// openRaw opens and starts a stream. inputChannels > 0 opens a capture
// stream, outputChannels > 0 a playback stream.
func openRaw(inputChannels, outputChannels int, sampleRate float64, framesPerBuffer int) (*rawStream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	var inputParams, outputParams *C.PaStreamParameters

	if inputChannels > 0 {
		device := C.Pa_GetDefaultInputDevice()
		if device == C.paNoDevice {
			return nil, fmt.Errorf("%w: no default input", ErrNoDevice)
		}
		info := C.Pa_GetDeviceInfo(device)
		inputParams = &C.PaStreamParameters{
			device:           device,
			channelCount:     C.int(inputChannels),
			sampleFormat:     C.paInt16,
			suggestedLatency: info.defaultLowInputLatency,
		}
	}

	if outputChannels > 0 {
		device := C.Pa_GetDefaultOutputDevice()
		if device == C.paNoDevice {
			return nil, fmt.Errorf("%w: no default output", ErrNoDevice)
		}
		info := C.Pa_GetDeviceInfo(device)
		outputParams = &C.PaStreamParameters{
			device:           device,
			channelCount:     C.int(outputChannels),
			sampleFormat:     C.paInt16,
			suggestedLatency: info.defaultLowOutputLatency,
		}
	}

	var paStream unsafe.Pointer
	if err := paError(C.pa_open_stream(
		&paStream,
		inputParams,
		outputParams,
		C.double(sampleRate),
		C.ulong(framesPerBuffer),
		C.paClipOff,
	)); err != nil {
		return nil, err
	}

	channels := max(inputChannels, outputChannels)
	s := &rawStream{
		stream: paStream,
		buffer: C.malloc(C.size_t(framesPerBuffer * channels * 2)),
	}

	if err := paError(C.pa_start_stream(paStream)); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *rawStream) read(frames int) ([]int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("portaudio: stream closed")
	}

	if err := paError(C.pa_read_stream(s.stream, s.buffer, C.ulong(frames))); err != nil {
		return nil, err
	}
	samples := make([]int16, frames)
	C.memcpy(unsafe.Pointer(&samples[0]), s.buffer, C.size_t(frames*2))
	return samples, nil
}

func (s *rawStream) write(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("portaudio: stream closed")
	}

	C.memcpy(s.buffer, unsafe.Pointer(&samples[0]), C.size_t(len(samples)*2))
	return paError(C.pa_write_stream(s.stream, s.buffer, C.ulong(len(samples))))
}

func (s *rawStream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	C.pa_stop_stream(s.stream)
	err := paError(C.pa_close_stream(s.stream))
	C.free(s.buffer)
	return err
}
