// Package buffer provides a bounded blocking queue used to hand audio
// frames and session events between goroutines.
//
// The queue has a fixed capacity chosen at construction time, giving
// predictable memory usage under a fast producer. Add blocks when the
// queue is full; TryAdd drops instead, which is what the microphone
// send path wants (a capture callback must never stall the hardware
// read loop).
package buffer
