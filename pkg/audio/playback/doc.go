// Package playback turns an inbound stream of arbitrarily sized
// decoded audio chunks into gapless, time-ordered, interruptible
// output audio.
//
// DecodeBuffer reconstructs a playable Buffer from raw PCM16 bytes.
// Scheduler owns the output device and its clock: each enqueued
// buffer starts at max(now, cursor) and advances the cursor by its
// duration, so buffers arriving faster than real time play
// back-to-back and late arrivals leave a silent gap rather than
// overlapping. Interrupt stops everything scheduled or in flight and
// resets the cursor, which is how remote barge-in truncates the
// assistant mid-sentence.
package playback
