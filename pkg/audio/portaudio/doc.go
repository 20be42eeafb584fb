// Package portaudio provides CGO bindings to the PortAudio library
// for microphone capture and speaker playback.
//
// Requires the PortAudio C library installed via pkg-config
// (brew install portaudio / apt install portaudio19-dev).
//
// The package exposes blocking streams in the project's PCM formats:
//
//	in, err := portaudio.OpenInput(pcm.L16Mono48K, 20*time.Millisecond)
//	out, err := portaudio.OpenOutput(pcm.L16Mono24K, 20*time.Millisecond)
//
// ErrNoDevice distinguishes "no usable device / access refused" from
// other hardware failures so callers can surface a permission error.
package portaudio
