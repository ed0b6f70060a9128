// internal/transport/transport_test.go
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestured/labstream/internal/models"
)

type recordedMessage struct {
	Type websocket.MessageType
	Data []byte
}

// wsServer accepts one connection, records everything the client sends,
// and lets the test push messages back down.
type wsServer struct {
	*httptest.Server
	mu       sync.Mutex
	received []recordedMessage
	conn     *websocket.Conn
	ready    chan struct{}
}

func newWSServer(t *testing.T) *wsServer {
	s := &wsServer{ready: make(chan struct{})}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conn = c
		s.mu.Unlock()
		close(s.ready)
		for {
			typ, data, err := c.Read(context.Background())
			if err != nil {
				return
			}
			s.mu.Lock()
			s.received = append(s.received, recordedMessage{typ, data})
			s.mu.Unlock()
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *wsServer) messages() []recordedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedMessage, len(s.received))
	copy(out, s.received)
	return out
}

// drop abruptly closes the server side of the connection. httptest's
// CloseClientConnections cannot do this: websocket connections are
// hijacked from net/http, and the test server stops tracking hijacked
// conns.
func (s *wsServer) drop() {
	<-s.ready
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	c.CloseNow()
}

func (s *wsServer) push(t *testing.T, typ websocket.MessageType, data []byte) {
	<-s.ready
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	require.NoError(t, c.Write(context.Background(), typ, data))
}

type recordingSink struct {
	mu     sync.Mutex
	frames [][]byte
}

func (r *recordingSink) Render(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// TestReplayOnOpen issues setup commands while the channel is still
// connecting; on reaching live, the first two outbound text messages must
// be set_reaction then set_chemical, exactly once each.
func TestReplayOnOpen(t *testing.T) {
	srv := newWSServer(t)
	ch := New(srv.URL, &recordingSink{}, Hooks{}, testLogger())

	ch.SetReaction(models.IndicatorBlueLitmus)
	ch.SetChemical("HCl")
	require.Equal(t, StateConnecting, ch.State())

	require.NoError(t, ch.Dial(context.Background()))
	require.Equal(t, StateLive, ch.State())

	// A frame send after the replay acts as a sequence sentinel.
	require.NoError(t, ch.SendFrame(context.Background(), []byte{0x01}))

	require.Eventually(t, func() bool {
		return len(srv.messages()) == 3
	}, time.Second, 10*time.Millisecond)

	msgs := srv.messages()
	require.Equal(t, websocket.MessageText, msgs[0].Type)
	require.Equal(t, websocket.MessageText, msgs[1].Type)
	require.Equal(t, websocket.MessageBinary, msgs[2].Type)

	var first, second Command
	require.NoError(t, json.Unmarshal(msgs[0].Data, &first))
	require.NoError(t, json.Unmarshal(msgs[1].Data, &second))
	assert.Equal(t, "set_reaction", first.Type)
	assert.Equal(t, models.IndicatorBlueLitmus, first.ReactionType)
	assert.Equal(t, "set_chemical", second.Type)
	assert.Equal(t, "HCl", second.ChemicalID)

	ch.Close()
}

// TestLiveCommandsSendImmediately: once live, setup commands go out as
// they are issued rather than waiting for a replay.
func TestLiveCommandsSendImmediately(t *testing.T) {
	srv := newWSServer(t)
	ch := New(srv.URL, &recordingSink{}, Hooks{}, testLogger())
	require.NoError(t, ch.Dial(context.Background()))

	ch.SetChemical("NaOH")
	require.Eventually(t, func() bool {
		return len(srv.messages()) == 1
	}, time.Second, 10*time.Millisecond)

	var cmd Command
	require.NoError(t, json.Unmarshal(srv.messages()[0].Data, &cmd))
	assert.Equal(t, "set_chemical", cmd.Type)
	assert.Equal(t, "NaOH", cmd.ChemicalID)

	ch.Close()
}

// TestInboundDispatch: binary payloads land in the frame sink, valid text
// payloads dispatch events, and malformed text is dropped silently with
// the read loop intact.
func TestInboundDispatch(t *testing.T) {
	srv := newWSServer(t)
	sink := &recordingSink{}

	var mu sync.Mutex
	var events []Event
	hooks := Hooks{OnEvent: func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}}

	ch := New(srv.URL, sink, hooks, testLogger())
	require.NoError(t, ch.Dial(context.Background()))

	srv.push(t, websocket.MessageBinary, []byte{0xff, 0xd8})
	srv.push(t, websocket.MessageText, []byte("{malformed"))
	srv.push(t, websocket.MessageText, []byte(`{"type":"reaction_complete","reaction_type":"blue_litmus"}`))
	srv.push(t, websocket.MessageBinary, []byte{0xff, 0xd9})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return sink.count() == 2 && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "reaction_complete", events[0].Type)
	assert.Equal(t, models.IndicatorBlueLitmus, events[0].ReactionType)
	mu.Unlock()

	require.Equal(t, StateLive, ch.State(), "malformed payloads must not kill the channel")
	ch.Close()
}

// TestCloseIsTerminalAndIdempotent: Close fires OnClosed exactly once,
// the state stays closed, and frame sends fail afterwards.
func TestCloseIsTerminalAndIdempotent(t *testing.T) {
	srv := newWSServer(t)

	var mu sync.Mutex
	closedCalls := 0
	hooks := Hooks{OnClosed: func(err error) {
		mu.Lock()
		defer mu.Unlock()
		closedCalls++
	}}

	ch := New(srv.URL, &recordingSink{}, hooks, testLogger())
	require.NoError(t, ch.Dial(context.Background()))

	ch.Close()
	ch.Close()

	require.Equal(t, StateClosed, ch.State())
	assert.Error(t, ch.SendFrame(context.Background(), []byte{0x01}))

	mu.Lock()
	assert.Equal(t, 1, closedCalls)
	mu.Unlock()
}

// TestServerDropSurfacesClosure: when the server side drops, the channel
// transitions to closed and reports the cause.
func TestServerDropSurfacesClosure(t *testing.T) {
	srv := newWSServer(t)

	closed := make(chan error, 1)
	hooks := Hooks{OnClosed: func(err error) { closed <- err }}

	ch := New(srv.URL, &recordingSink{}, hooks, testLogger())
	require.NoError(t, ch.Dial(context.Background()))

	srv.drop()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("OnClosed never fired after server drop")
	}
	assert.Equal(t, StateClosed, ch.State())
}
