package resampler

import (
	"fmt"
	"io"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/voxlive/voxlive/pkg/audio/pcm"
)

// Resampler converts a stream of little-endian 16-bit mono PCM from
// one sample rate to another. It must be closed to release resources.
type Resampler struct {
	src    io.Reader
	srcFmt pcm.Format
	dstFmt pcm.Format

	mu        sync.Mutex
	closeErr  error
	engine    resampling.Resampler
	leftover  []byte
	readBuf   []byte
	converted bool // src and dst rates differ
}

// New creates a Resampler reading srcFmt audio from src and producing
// dstFmt audio. Both formats must be mono 16-bit PCM. When the rates
// match Read is a passthrough.
func New(src io.Reader, srcFmt, dstFmt pcm.Format) (*Resampler, error) {
	if srcFmt.Channels() != 1 || dstFmt.Channels() != 1 {
		return nil, fmt.Errorf("resampler: only mono formats supported")
	}

	r := &Resampler{
		src:       newSampleReader(src, srcFmt.BytesPerSample()),
		srcFmt:    srcFmt,
		dstFmt:    dstFmt,
		converted: srcFmt.SampleRate() != dstFmt.SampleRate(),
	}

	if r.converted {
		engine, err := resampling.New(&resampling.Config{
			InputRate:  float64(srcFmt.SampleRate()),
			OutputRate: float64(dstFmt.SampleRate()),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("resampler: create engine: %w", err)
		}
		r.engine = engine
	}

	return r, nil
}

// Read fills p with resampled audio. It returns a whole number of
// samples; p must hold at least one. Not safe for concurrent use.
func (r *Resampler) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) < r.dstFmt.BytesPerSample() {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/r.dstFmt.BytesPerSample()*r.dstFmt.BytesPerSample()]

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.leftover) > 0 {
		n := copy(p, r.leftover)
		r.leftover = r.leftover[n:]
		return n, nil
	}

	if r.closeErr != nil {
		return 0, r.closeErr
	}

	if !r.converted {
		return r.src.Read(p)
	}
	return r.readResampled(p)
}

func (r *Resampler) readResampled(p []byte) (int, error) {
	// Pull roughly enough source data for len(p) of output.
	ratio := float64(r.srcFmt.SampleRate()) / float64(r.dstFmt.SampleRate())
	want := int(float64(len(p))*ratio) + r.srcFmt.BytesPerSample()*4
	if cap(r.readBuf) < want {
		r.readBuf = make([]byte, want)
	}

	rn, readErr := r.src.Read(r.readBuf[:want])
	if rn == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, io.EOF
	}

	frames := rn / 2
	input := make([]float64, frames)
	for i := range frames {
		v := int16(r.readBuf[i*2]) | int16(r.readBuf[i*2+1])<<8
		input[i] = float64(v) / 32768
	}

	output, err := r.engine.Process(input)
	if err != nil {
		return 0, fmt.Errorf("resampler: process: %w", err)
	}
	if len(output) == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, nil
	}

	out := make([]byte, len(output)*2)
	for i, s := range output {
		v := int16(s * 32767)
		if s > 1 {
			v = 32767
		} else if s < -1 {
			v = -32768
		}
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}

	n := copy(p, out)
	if len(out) > n {
		r.leftover = append(r.leftover, out[n:]...)
	}
	return n, readErr
}

// Close releases resources. Subsequent Reads return io.ErrClosedPipe.
func (r *Resampler) Close() error {
	return r.CloseWithError(fmt.Errorf("resampler: %w", io.ErrClosedPipe))
}

// CloseWithError releases resources with a custom error returned by
// subsequent Reads.
func (r *Resampler) CloseWithError(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeErr == nil {
		r.closeErr = err
	}
	r.engine = nil
	return nil
}
