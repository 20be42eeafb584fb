package pcm

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrDecode indicates malformed transport text.
var ErrDecode = errors.New("pcm: decode")

// EncodeSamples converts float samples in [-1, 1] to little-endian
// 16-bit PCM bytes. Out-of-range samples are clamped, not rejected:
// a hot microphone signal should distort, not kill the stream.
func EncodeSamples(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// DecodeSamples converts little-endian 16-bit PCM bytes to float
// samples in [-1, 1). A trailing odd byte is ignored.
func DecodeSamples(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := range n {
		v := int16(data[i*2]) | int16(data[i*2+1])<<8
		out[i] = float32(v) / 32768
	}
	return out
}

// EncodeBase64 converts PCM bytes to the text-safe transport encoding.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 converts transport text back to PCM bytes. Malformed
// input returns an error wrapping ErrDecode.
func DecodeBase64(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return data, nil
}
