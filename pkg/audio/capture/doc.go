// Package capture owns the microphone input device and a fixed-size
// framing stage.
//
// A Chain reads the hardware stream (resampling from the device's
// native rate when needed), slices it into fixed-length sample
// frames, and hands each frame to a callback:
//
//	chain := capture.New(capture.Config{})
//	err := chain.Start(func(frame capture.Frame) {
//	    // must not block: runs on the read loop
//	})
//	...
//	chain.Stop()
//
// The chain is a live, unbounded producer. The callback runs on the
// read goroutine and must return quickly or enqueue work elsewhere;
// blocking it stalls the hardware stream.
package capture
