package voice

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/voxlive/voxlive/pkg/audio/capture"
	"github.com/voxlive/voxlive/pkg/audio/pcm"
	"github.com/voxlive/voxlive/pkg/audio/playback"
	"github.com/voxlive/voxlive/pkg/live"
)

// opLog records collaborator calls so tests can assert teardown order.
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) add(op string) {
	l.mu.Lock()
	l.ops = append(l.ops, op)
	l.mu.Unlock()
}

func (l *opLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

type fakeItem struct {
	ev  *live.ServerEvent
	err error
}

type fakeTransport struct {
	log    *opLog
	events chan fakeItem

	mu     sync.Mutex
	sent   [][]byte
	closed chan struct{}
	once   sync.Once
}

func newFakeTransport(log *opLog) *fakeTransport {
	return &fakeTransport{
		log:    log,
		events: make(chan fakeItem, 16),
		closed: make(chan struct{}),
	}
}

func (t *fakeTransport) SendAudio(pcm []byte) error {
	t.mu.Lock()
	t.sent = append(t.sent, pcm)
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) sentFrames() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]byte(nil), t.sent...)
}

func (t *fakeTransport) Events() iter.Seq2[*live.ServerEvent, error] {
	return func(yield func(*live.ServerEvent, error) bool) {
		for {
			select {
			case <-t.closed:
				return
			case item, ok := <-t.events:
				if !ok {
					return
				}
				if !yield(item.ev, item.err) {
					return
				}
				if item.err != nil {
					return
				}
			}
		}
	}
}

func (t *fakeTransport) Close() error {
	t.once.Do(func() {
		t.log.add("transport.close")
		close(t.closed)
	})
	return nil
}

type fakeCapture struct {
	log *opLog

	mu      sync.Mutex
	onFrame func(capture.Frame)
}

func (c *fakeCapture) Start(onFrame func(capture.Frame)) error {
	c.mu.Lock()
	c.onFrame = onFrame
	c.mu.Unlock()
	return nil
}

func (c *fakeCapture) Stop() {
	c.log.add("capture.stop")
}

func (c *fakeCapture) emit(f capture.Frame) {
	c.mu.Lock()
	onFrame := c.onFrame
	c.mu.Unlock()
	if onFrame != nil {
		onFrame(f)
	}
}

type fakePlayer struct {
	log *opLog

	mu         sync.Mutex
	enqueued   []*playback.Buffer
	interrupts int
}

func (p *fakePlayer) Enqueue(buf *playback.Buffer) (*playback.Handle, error) {
	p.mu.Lock()
	p.enqueued = append(p.enqueued, buf)
	p.mu.Unlock()
	return &playback.Handle{}, nil
}

func (p *fakePlayer) Interrupt() {
	p.mu.Lock()
	p.interrupts++
	p.mu.Unlock()
}

func (p *fakePlayer) Shutdown() {
	p.log.add("player.shutdown")
}

func (p *fakePlayer) buffers() []*playback.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*playback.Buffer(nil), p.enqueued...)
}

func (p *fakePlayer) interruptCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interrupts
}

type fixture struct {
	log       *opLog
	transport *fakeTransport
	capture   *fakeCapture
	player    *fakePlayer
	session   *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := &opLog{}
	f := &fixture{
		log:       log,
		transport: newFakeTransport(log),
		capture:   &fakeCapture{log: log},
		player:    &fakePlayer{log: log},
	}
	f.session = New(Config{
		Connect: func(ctx context.Context) (Transport, error) {
			return f.transport, nil
		},
		NewCapture: func() (Capture, error) { return f.capture, nil },
		NewPlayer:  func() (Player, error) { return f.player, nil },
	})
	return f
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", s.State(), want)
}

func TestStartStopLifecycle(t *testing.T) {
	f := newFixture(t)

	if got := f.session.State(); got != StateDisconnected {
		t.Fatalf("initial state = %v, want disconnected", got)
	}

	// Stop before Start is a no-op.
	f.session.Stop()
	if got := f.session.State(); got != StateDisconnected {
		t.Fatalf("state after premature Stop = %v, want disconnected", got)
	}

	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := f.session.State(); got != StateConnected {
		t.Fatalf("state after Start = %v, want connected", got)
	}

	if err := f.session.Start(context.Background()); !errors.Is(err, ErrState) {
		t.Errorf("second Start = %v, want ErrState", err)
	}

	f.session.Stop()
	if got := f.session.State(); got != StateDisconnected {
		t.Fatalf("state after Stop = %v, want disconnected", got)
	}

	want := []string{"transport.close", "capture.stop", "player.shutdown"}
	got := f.log.snapshot()
	if len(got) != len(want) {
		t.Fatalf("teardown ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("teardown ops = %v, want %v", got, want)
		}
	}

	// Stop again is a no-op.
	f.session.Stop()
	if n := len(f.log.snapshot()); n != len(want) {
		t.Errorf("second Stop added ops: %v", f.log.snapshot())
	}
}

func TestSessionRestarts(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	f.session.Stop()

	f.transport = newFakeTransport(f.log)
	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if got := f.session.State(); got != StateConnected {
		t.Fatalf("state after restart = %v, want connected", got)
	}
	f.session.Stop()
}

func TestFramesForwardedWhenConnected(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.session.Stop()

	frame := capture.Frame{0.25, -0.25, 0.5, -0.5}
	f.capture.emit(frame)

	want := pcm.EncodeSamples(frame)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sent := f.transport.sentFrames()
		if len(sent) == 1 {
			if string(sent[0]) != string(want) {
				t.Fatalf("sent %v, want %v", sent[0], want)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("frame never reached the transport")
}

func TestFramesDroppedWhenNotConnected(t *testing.T) {
	f := newFixture(t)
	connected := make(chan struct{})
	f.session = New(Config{
		Connect: func(ctx context.Context) (Transport, error) {
			// Frames arriving before the connect resolves must be
			// dropped, not queued.
			f.capture.emit(capture.Frame{0.1, 0.2})
			f.capture.emit(capture.Frame{0.3, 0.4})
			close(connected)
			return f.transport, nil
		},
		NewCapture: func() (Capture, error) { return f.capture, nil },
		NewPlayer:  func() (Player, error) { return f.player, nil },
	})

	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.session.Stop()
	<-connected

	time.Sleep(50 * time.Millisecond)
	if sent := f.transport.sentFrames(); len(sent) != 0 {
		t.Errorf("pre-connection frames were sent: %d", len(sent))
	}
}

func TestAudioEventEnqueued(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.session.Stop()

	// Two samples of 24 kHz mono.
	f.transport.events <- fakeItem{ev: &live.ServerEvent{
		Audio:      []byte{0x00, 0x40, 0x00, 0xC0},
		SampleRate: 24000,
		Channels:   1,
	}}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		bufs := f.player.buffers()
		if len(bufs) == 1 {
			if bufs[0].SampleRate != 24000 || len(bufs[0].Samples) != 2 {
				t.Fatalf("unexpected buffer: rate=%d samples=%d",
					bufs[0].SampleRate, len(bufs[0].Samples))
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("audio never reached the player")
}

func TestMalformedAudioDropped(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.session.Stop()

	// Odd byte count cannot be PCM16; the chunk is dropped and the
	// session keeps going.
	f.transport.events <- fakeItem{ev: &live.ServerEvent{
		Audio:      []byte{0x01, 0x02, 0x03},
		SampleRate: 24000,
		Channels:   1,
	}}
	f.transport.events <- fakeItem{ev: &live.ServerEvent{
		Audio:      []byte{0x01, 0x02},
		SampleRate: 24000,
		Channels:   1,
	}}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(f.player.buffers()) == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if n := len(f.player.buffers()); n != 1 {
		t.Fatalf("got %d buffers, want only the valid chunk", n)
	}
	if got := f.session.State(); got != StateConnected {
		t.Errorf("state = %v, want connected after dropped chunk", got)
	}
}

func TestInterruptedEventPreemptsPlayback(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.session.Stop()

	f.transport.events <- fakeItem{ev: &live.ServerEvent{Interrupted: true}}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.player.interruptCount() == 1 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("interrupted event never reached the player")
}

func TestStreamErrorTearsDownToError(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	f.transport.events <- fakeItem{err: errors.New("connection reset")}

	waitForState(t, f.session, StateError)
	got := f.log.snapshot()
	if len(got) != 3 || got[0] != "transport.close" ||
		got[1] != "capture.stop" || got[2] != "player.shutdown" {
		t.Fatalf("teardown ops = %v", got)
	}

	// Stop from the error state resets to disconnected.
	f.session.Stop()
	if got := f.session.State(); got != StateDisconnected {
		t.Errorf("state after Stop = %v, want disconnected", got)
	}
}

func TestCleanCloseTearsDownToDisconnected(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	close(f.transport.events)

	waitForState(t, f.session, StateDisconnected)
	if got := f.log.snapshot(); len(got) != 3 {
		t.Fatalf("teardown ops = %v", got)
	}
}

func TestConnectFailureReleasesAndErrors(t *testing.T) {
	log := &opLog{}
	mic := &fakeCapture{log: log}
	player := &fakePlayer{log: log}
	connectErr := &live.Error{Code: "connection_failed", Message: "dial refused"}

	session := New(Config{
		Connect: func(ctx context.Context) (Transport, error) {
			return nil, connectErr
		},
		NewCapture: func() (Capture, error) { return mic, nil },
		NewPlayer:  func() (Player, error) { return player, nil },
	})

	err := session.Start(context.Background())
	var liveErr *live.Error
	if !errors.As(err, &liveErr) || liveErr.Code != "connection_failed" {
		t.Fatalf("Start = %v, want connection_failed", err)
	}
	if got := session.State(); got != StateError {
		t.Errorf("state after failed connect = %v, want error", got)
	}

	ops := log.snapshot()
	if len(ops) != 2 || ops[0] != "capture.stop" || ops[1] != "player.shutdown" {
		t.Errorf("rollback ops = %v, want [capture.stop player.shutdown]", ops)
	}

	// The error state does not block a retry: Start runs again and
	// fails the same way, not with ErrState.
	err = session.Start(context.Background())
	if !errors.As(err, &liveErr) || liveErr.Code != "connection_failed" {
		t.Fatalf("retried Start = %v, want connection_failed", err)
	}
	if got := session.State(); got != StateError {
		t.Errorf("state after retried Start = %v, want error", got)
	}

	// Stop clears the error state.
	session.Stop()
	if got := session.State(); got != StateDisconnected {
		t.Errorf("state after Stop = %v, want disconnected", got)
	}
}

func TestStopDuringStartInvalidatesRun(t *testing.T) {
	type connectCall struct {
		entered   chan struct{}
		gate      chan struct{}
		transport Transport
	}

	log := &opLog{}
	t1 := newFakeTransport(log)
	t2 := newFakeTransport(log)
	mic := &fakeCapture{log: log}
	player := &fakePlayer{log: log}

	c1 := &connectCall{entered: make(chan struct{}), gate: make(chan struct{}), transport: t1}
	c2 := &connectCall{entered: make(chan struct{}), gate: make(chan struct{}), transport: t2}
	connects := make(chan *connectCall, 2)
	connects <- c1
	connects <- c2

	session := New(Config{
		Connect: func(ctx context.Context) (Transport, error) {
			c := <-connects
			close(c.entered)
			<-c.gate
			return c.transport, nil
		},
		NewCapture: func() (Capture, error) { return mic, nil },
		NewPlayer:  func() (Player, error) { return player, nil },
	})

	err1 := make(chan error, 1)
	go func() { err1 <- session.Start(context.Background()) }()
	<-c1.entered

	// The user gives up on the hanging connect and starts over.
	session.Stop()

	err2 := make(chan error, 1)
	go func() { err2 <- session.Start(context.Background()) }()
	<-c2.entered

	// The stale first connect now resolves while the second is still
	// in flight. It must release its transport and bow out instead of
	// installing itself as the session's run.
	close(c1.gate)
	if err := <-err1; !errors.Is(err, ErrState) {
		t.Fatalf("stale Start = %v, want ErrState", err)
	}

	close(c2.gate)
	if err := <-err2; err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if got := session.State(); got != StateConnected {
		t.Fatalf("state = %v, want connected", got)
	}

	// Frames flow to the second transport; the first stays closed and
	// silent.
	frame := capture.Frame{0.5, -0.5}
	mic.emit(frame)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(t2.sentFrames()) == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if got := len(t2.sentFrames()); got != 1 {
		t.Fatalf("second transport saw %d frames, want 1", got)
	}
	select {
	case <-t1.closed:
	default:
		t.Error("stale transport was never closed")
	}
	if got := len(t1.sentFrames()); got != 0 {
		t.Errorf("stale transport saw %d frames, want 0", got)
	}

	session.Stop()
}

func TestPlayerFactoryFailure(t *testing.T) {
	wantErr := errors.New("no output device")
	session := New(Config{
		Connect:    func(ctx context.Context) (Transport, error) { return nil, nil },
		NewCapture: func() (Capture, error) { return &fakeCapture{log: &opLog{}}, nil },
		NewPlayer:  func() (Player, error) { return nil, wantErr },
	})

	if err := session.Start(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Start = %v, want %v", err, wantErr)
	}
	if got := session.State(); got != StateDisconnected {
		t.Errorf("state = %v, want disconnected", got)
	}
}
