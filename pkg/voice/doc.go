// Package voice orchestrates one live voice conversation: microphone
// frames flow up to the remote service, synthesized speech flows back
// down into the playback scheduler, and a barge-in from the user
// truncates playback immediately.
//
// Session wires three collaborators behind small interfaces — a
// Transport (the duplex stream), a Capture (the microphone chain) and
// a Player (the playback scheduler) — so each can be replaced in
// tests. DefaultConfig assembles the real PortAudio and Gemini Live
// implementations.
package voice
