// Package live is a client for the Gemini Live API
// (BidiGenerateContent over WebSocket).
//
// A Session is a full-duplex stream: microphone PCM goes up as
// base64-encoded realtimeInput chunks, synthesized speech comes back
// as inlineData parts inside serverContent messages. Events are
// consumed through an iterator:
//
//	client := live.NewClient(apiKey)
//	session, err := client.Connect(ctx, &live.ConnectConfig{Voice: "Puck"})
//	if err != nil { ... }
//	defer session.Close()
//
//	go func() {
//		for event, err := range session.Events() {
//			...
//		}
//	}()
//	session.SendAudio(frame)
package live
