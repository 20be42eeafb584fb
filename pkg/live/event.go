package live

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/voxlive/voxlive/pkg/audio/pcm"
)

// ServerEvent is one unit of server output. A single wire message may
// expand into several events (one per audio part, plus one carrying
// turn flags).
type ServerEvent struct {
	// Audio is a chunk of synthesized speech as little-endian PCM16
	// bytes, already base64-decoded. Nil when the event carries no
	// audio.
	Audio      []byte
	SampleRate int
	Channels   int

	// Text is a model text part, when the session runs with a TEXT
	// response modality.
	Text string

	// InputTranscript and OutputTranscript carry incremental speech
	// transcriptions when the service provides them.
	InputTranscript  string
	OutputTranscript string

	// Interrupted reports that the user barged in: all queued model
	// speech is stale and must be dropped immediately.
	Interrupted bool

	// TurnComplete marks the end of the current model turn.
	TurnComplete bool

	// GoAway warns that the server will close the connection soon.
	GoAway bool

	// Raw is the wire message this event was parsed from.
	Raw json.RawMessage
}

// parseServerMessage expands one wire message into events. A protocol
// error inside the message is returned as err; malformed audio parts
// are logged and dropped, never fatal.
func parseServerMessage(data []byte) (events []*ServerEvent, err error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("live: parse message: %w", err)
	}

	if msg.Error != nil {
		return nil, msg.Error.toError()
	}

	if sc := msg.ServerContent; sc != nil {
		if sc.ModelTurn != nil {
			for _, p := range sc.ModelTurn.Parts {
				if p.InlineData != nil {
					audio, err := pcm.DecodeBase64(p.InlineData.Data)
					if err != nil {
						slog.Warn("live: dropping malformed audio part", "error", err)
						continue
					}
					if len(audio) == 0 {
						continue
					}
					rate, channels := parseAudioMIME(p.InlineData.MIMEType)
					events = append(events, &ServerEvent{
						Audio:      audio,
						SampleRate: rate,
						Channels:   channels,
						Raw:        data,
					})
				}
				if p.Text != "" {
					events = append(events, &ServerEvent{Text: p.Text, Raw: data})
				}
			}
		}

		if sc.Interrupted || sc.TurnComplete ||
			sc.InputTranscription != nil || sc.OutputTranscription != nil {
			flags := &ServerEvent{
				Interrupted:  sc.Interrupted,
				TurnComplete: sc.TurnComplete,
				Raw:          data,
			}
			if sc.InputTranscription != nil {
				flags.InputTranscript = sc.InputTranscription.Text
			}
			if sc.OutputTranscription != nil {
				flags.OutputTranscript = sc.OutputTranscription.Text
			}
			events = append(events, flags)
		}
	}

	if msg.GoAway != nil {
		events = append(events, &ServerEvent{GoAway: true, Raw: data})
	}

	return events, nil
}
