package live

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voxlive/voxlive/pkg/audio/pcm"
)

// Session is an open duplex stream to the Gemini Live service.
type Session struct {
	conn      *websocket.Conn
	config    *ConnectConfig
	sessionID string
	closeCh   chan struct{}
	eventsCh  chan eventOrError
	closeOnce sync.Once
	mu        sync.Mutex
}

type eventOrError struct {
	event *ServerEvent
	err   error
}

// connect dials the endpoint, performs the setup handshake and starts
// the background reader.
func (c *Client) connect(ctx context.Context, config *ConnectConfig) (*Session, error) {
	if config == nil {
		config = &ConnectConfig{}
	}
	if config.Model == "" {
		config.Model = DefaultModel
	} else if !strings.HasPrefix(config.Model, "models/") {
		config.Model = "models/" + config.Model
	}

	url := fmt.Sprintf("%s?key=%s", c.config.endpoint, c.config.apiKey)

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.httpClient.Timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, &Error{
				Code:       "connection_failed",
				Message:    fmt.Sprintf("failed to connect: %v", err),
				HTTPStatus: resp.StatusCode,
			}
		}
		return nil, &Error{
			Code:    "connection_failed",
			Message: fmt.Sprintf("failed to connect: %v", err),
		}
	}

	session := &Session{
		conn:      conn,
		config:    config,
		sessionID: "live_" + uuid.New().String()[:12],
		closeCh:   make(chan struct{}),
		eventsCh:  make(chan eventOrError, 100),
	}

	if err := session.handshake(config); err != nil {
		conn.Close()
		return nil, err
	}

	go session.readLoop()

	return session, nil
}

// handshake sends the setup frame and waits for setupComplete. Any
// other outcome leaves the session unusable.
func (s *Session) handshake(config *ConnectConfig) error {
	modalities := config.ResponseModalities
	if len(modalities) == 0 {
		modalities = []string{"AUDIO"}
	}

	setup := setupMessage{
		Setup: setupConfig{
			Model: config.Model,
			GenerationConfig: generationConfig{
				ResponseModalities: modalities,
			},
		},
	}
	if config.Voice != "" {
		setup.Setup.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: config.Voice},
			},
		}
	}
	if config.SystemInstruction != "" {
		setup.Setup.SystemInstruction = &systemInstruction{
			Parts: []part{{Text: config.SystemInstruction}},
		}
	}

	if err := s.sendMessage(setup); err != nil {
		return &Error{
			Code:    "connection_failed",
			Message: fmt.Sprintf("setup: %v", err),
		}
	}

	_, message, err := s.conn.ReadMessage()
	if err != nil {
		return &Error{
			Code:    "connection_failed",
			Message: fmt.Sprintf("setup: %v", err),
		}
	}

	var msg serverMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return &Error{
			Code:    "connection_failed",
			Message: fmt.Sprintf("setup: parse: %v", err),
		}
	}
	if msg.Error != nil {
		wireErr := msg.Error.toError()
		return &Error{
			Code:    "connection_failed",
			Status:  wireErr.Status,
			Message: wireErr.Message,
		}
	}
	if msg.SetupComplete == nil {
		return &Error{
			Code:    "connection_failed",
			Message: "setup: server did not acknowledge setup",
		}
	}

	slog.Debug("live: session established", "session", s.sessionID, "model", config.Model)
	return nil
}

// SendAudio sends a chunk of microphone audio as little-endian PCM16
// at 16 kHz mono.
func (s *Session) SendAudio(audio []byte) error {
	return s.SendAudioBase64(pcm.EncodeBase64(audio))
}

// SendAudioBase64 sends already-encoded microphone audio.
func (s *Session) SendAudioBase64(audioBase64 string) error {
	return s.sendMessage(realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{
				Data:     audioBase64,
				MIMEType: pcm.L16Mono16K.MIMEType(),
			}},
		},
	})
}

// SendText sends a complete user text turn. The model responds the
// same way it responds to speech.
func (s *Session) SendText(text string) error {
	return s.sendMessage(clientContentMessage{
		ClientContent: clientContent{
			Turns: []contentTurn{{
				Role:  "user",
				Parts: []part{{Text: text}},
			}},
			TurnComplete: true,
		},
	})
}

// Events returns an iterator over server events. The iterator ends
// after the first terminal error or when the session is closed.
func (s *Session) Events() iter.Seq2[*ServerEvent, error] {
	return func(yield func(*ServerEvent, error) bool) {
		for {
			select {
			case <-s.closeCh:
				return
			case item, ok := <-s.eventsCh:
				if !ok {
					return
				}
				if !yield(item.event, item.err) {
					return
				}
				if item.err != nil {
					return
				}
			}
		}
	}
}

// Close closes the session. Safe to call multiple times.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		err = s.conn.Close()
	})
	return err
}

// SessionID returns the client-assigned session ID used in logs.
func (s *Session) SessionID() string {
	return s.sessionID
}

// sendMessage marshals v and writes it as a text WebSocket message.
func (s *Session) sendMessage(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		if jsonBytes, err := json.Marshal(v); err == nil {
			str := string(jsonBytes)
			if len(str) > 500 {
				str = str[:500] + "..."
			}
			slog.Debug("live: sending message", "session", s.sessionID, "content", str)
		}
	}

	return s.conn.WriteJSON(v)
}

// readLoop reads messages from the WebSocket connection and fans the
// parsed events into eventsCh.
func (s *Session) readLoop() {
	defer close(s.eventsCh)

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if rerr := s.readError(err); rerr != nil {
				select {
				case <-s.closeCh:
				case s.eventsCh <- eventOrError{err: rerr}:
				}
			}
			return
		}

		if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			msgStr := string(message)
			if len(msgStr) > 1000 {
				msgStr = msgStr[:1000] + "..."
			}
			slog.Debug("live: received message", "session", s.sessionID, "len", len(message), "content", msgStr)
		}

		events, err := parseServerMessage(message)
		if err != nil {
			select {
			case <-s.closeCh:
				return
			case s.eventsCh <- eventOrError{err: err}:
			}
			return
		}

		for _, event := range events {
			select {
			case <-s.closeCh:
				return
			case s.eventsCh <- eventOrError{event: event}:
			}
		}
	}
}

// readError normalizes connection teardown. A normal close from the
// server ends the event stream without an error.
func (s *Session) readError(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		strings.Contains(err.Error(), "use of closed network connection") {
		return nil
	}
	return fmt.Errorf("live: read: %w", err)
}
