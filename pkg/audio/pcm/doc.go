// Package pcm provides linear 16-bit PCM format descriptions and the
// stateless codec between float samples, PCM bytes, and the base64
// transport encoding.
//
//	frame := pcm.EncodeSamples(samples)         // float32 → PCM16 LE
//	text := pcm.EncodeBase64(frame)             // PCM16 → transport text
//	data, err := pcm.DecodeBase64(text)         // and back
//	samples = pcm.DecodeSamples(data)
package pcm
