package live

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestParseAudioMIME(t *testing.T) {
	tests := []struct {
		mime     string
		rate     int
		channels int
	}{
		{"audio/pcm;rate=24000", 24000, 1},
		{"audio/pcm;rate=16000", 16000, 1},
		{"audio/pcm;rate=48000;channels=2", 48000, 2},
		{"audio/pcm; rate=24000", 24000, 1},
		{"audio/pcm", 24000, 1},
		{"", 24000, 1},
		{"audio/pcm;rate=abc", 24000, 1},
		{"audio/pcm;rate=-1", 24000, 1},
	}
	for _, tt := range tests {
		rate, channels := parseAudioMIME(tt.mime)
		if rate != tt.rate || channels != tt.channels {
			t.Errorf("parseAudioMIME(%q) = (%d, %d), want (%d, %d)",
				tt.mime, rate, channels, tt.rate, tt.channels)
		}
	}
}

func TestParseServerMessageAudio(t *testing.T) {
	pcmBytes := []byte{0x01, 0x02, 0x03, 0x04}
	data := base64.StdEncoding.EncodeToString(pcmBytes)
	msg := `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` + data + `"}}]}}}`

	events, err := parseServerMessage([]byte(msg))
	if err != nil {
		t.Fatalf("parseServerMessage failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if string(ev.Audio) != string(pcmBytes) {
		t.Errorf("audio = %v, want %v", ev.Audio, pcmBytes)
	}
	if ev.SampleRate != 24000 || ev.Channels != 1 {
		t.Errorf("format = %d/%d, want 24000/1", ev.SampleRate, ev.Channels)
	}
}

func TestParseServerMessageInterrupted(t *testing.T) {
	events, err := parseServerMessage([]byte(`{"serverContent":{"interrupted":true}}`))
	if err != nil {
		t.Fatalf("parseServerMessage failed: %v", err)
	}
	if len(events) != 1 || !events[0].Interrupted {
		t.Fatalf("events = %+v, want one interrupted event", events)
	}
}

func TestParseServerMessageTurnComplete(t *testing.T) {
	events, err := parseServerMessage([]byte(`{"serverContent":{"turnComplete":true}}`))
	if err != nil {
		t.Fatalf("parseServerMessage failed: %v", err)
	}
	if len(events) != 1 || !events[0].TurnComplete {
		t.Fatalf("events = %+v, want one turnComplete event", events)
	}
}

func TestParseServerMessageAudioWithFlags(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte{0, 0})
	msg := `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` + data + `"}}]},"turnComplete":true}}`

	events, err := parseServerMessage([]byte(msg))
	if err != nil {
		t.Fatalf("parseServerMessage failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want audio + flags", len(events))
	}
	if events[0].Audio == nil {
		t.Error("first event has no audio")
	}
	if !events[1].TurnComplete {
		t.Error("second event is not turnComplete")
	}
}

func TestParseServerMessageSkipsBadAudio(t *testing.T) {
	good := []byte{0x01, 0x02}
	msg := `{"serverContent":{"modelTurn":{"parts":[` +
		`{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"!!!not-base64!!!"}},` +
		`{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` +
		base64.StdEncoding.EncodeToString(good) + `"}}]}}}`

	// A malformed part is dropped without poisoning its siblings or
	// ending the stream.
	events, err := parseServerMessage([]byte(msg))
	if err != nil {
		t.Fatalf("parseServerMessage failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want only the valid part", len(events))
	}
	if string(events[0].Audio) != string(good) {
		t.Errorf("audio = %v, want %v", events[0].Audio, good)
	}
}

func TestParseServerMessageError(t *testing.T) {
	msg := `{"error":{"code":400,"message":"bad setup","status":"INVALID_ARGUMENT"}}`
	_, err := parseServerMessage([]byte(msg))
	var liveErr *Error
	if !errors.As(err, &liveErr) {
		t.Fatalf("err = %v, want *live.Error", err)
	}
	if liveErr.Status != "INVALID_ARGUMENT" || liveErr.Message != "bad setup" {
		t.Errorf("unexpected error fields: %+v", liveErr)
	}
}

func TestParseServerMessageGoAway(t *testing.T) {
	events, err := parseServerMessage([]byte(`{"goAway":{"timeLeft":"10s"}}`))
	if err != nil {
		t.Fatalf("parseServerMessage failed: %v", err)
	}
	if len(events) != 1 || !events[0].GoAway {
		t.Fatalf("events = %+v, want one goAway event", events)
	}
}

func TestParseServerMessageText(t *testing.T) {
	msg := `{"serverContent":{"modelTurn":{"parts":[{"text":"hello"}]}}}`
	events, err := parseServerMessage([]byte(msg))
	if err != nil {
		t.Fatalf("parseServerMessage failed: %v", err)
	}
	if len(events) != 1 || events[0].Text != "hello" {
		t.Fatalf("events = %+v, want one text event", events)
	}
}
