// Package audio is an umbrella for the audio processing sub-packages:
//
//   - pcm: PCM sample formats and the float ↔ 16-bit codec
//   - capture: microphone capture with fixed-size framing
//   - playback: decoded-buffer scheduling and gapless output
//   - resampler: sample-rate conversion between PCM formats
//   - portaudio: CGO bindings for the audio hardware layer
package audio
