// Package resampler converts mono 16-bit PCM audio between sample
// rates using a pure Go resampling backend (no FFI dependencies).
//
// The capture path uses it to turn the hardware's native rate
// (typically 48 kHz) into the 16 kHz stream the remote service
// expects:
//
//	rs, err := resampler.New(device, pcm.L16Mono48K, pcm.L16Mono16K)
//	...
//	n, err := rs.Read(frame)
package resampler
