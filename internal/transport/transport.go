// internal/transport/transport.go

// Package transport implements the persistent duplex channel to the lab
// processing service. One connection carries four payload kinds: outbound
// binary frames, outbound JSON control commands, inbound binary processed
// frames, and inbound JSON control events. The channel owns its lifecycle
// state (connecting -> live -> closed); closed is terminal for the
// session, there is no automatic reconnect.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gestured/labstream/internal/models"
)

// State is the channel lifecycle state.
type State int

const (
	StateConnecting State = iota
	StateLive
	StateClosed
)

const writeTimeout = 3 * time.Second

// Command is an outbound JSON control message, discriminated by Type.
type Command struct {
	Type         string               `json:"type"`
	ReactionType models.IndicatorMode `json:"reaction_type,omitempty"`
	ChemicalID   string               `json:"chemical_id,omitempty"`
}

// Event is an inbound JSON control message, discriminated by Type.
// reaction_complete may omit the chemical and indicator snapshots.
type Event struct {
	Type         string               `json:"type"`
	Chemical     *models.Chemical     `json:"chemical,omitempty"`
	ReactionType models.IndicatorMode `json:"reaction_type,omitempty"`
}

// FrameSink consumes inbound processed frames. Implementations draw the
// frame immediately, replacing whatever was previously displayed; a frame
// that fails to decode is simply dropped.
type FrameSink interface {
	Render(frame []byte)
}

// Hooks are the channel's callbacks into the session. OnLive fires once
// when the connection opens (after setup replay); OnEvent fires for each
// decoded control event; OnClosed fires exactly once when the channel
// leaves the live state, with a nil error for an explicit Close.
type Hooks struct {
	OnLive   func()
	OnEvent  func(Event)
	OnClosed func(error)
}

// Channel is the duplex streaming connection.
type Channel struct {
	url   string
	log   *logrus.Logger
	sink  FrameSink
	hooks Hooks

	mu    sync.Mutex
	conn  *websocket.Conn
	state State

	// Latest-known setup state, replayed on open so that setup performed
	// while the channel was still connecting is not lost.
	reaction models.IndicatorMode
	chemical string

	cancelRead context.CancelFunc
}

// New builds a channel for the given WebSocket endpoint. Dial must be
// called before any send.
func New(url string, sink FrameSink, hooks Hooks, log *logrus.Logger) *Channel {
	return &Channel{url: url, sink: sink, hooks: hooks, log: log, state: StateConnecting}
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dial opens the connection and moves the channel to live. On entry to
// live it replays the currently-known indicator mode and chemical
// selection, in that order, each exactly once, then starts the read loop
// and fires OnLive.
func (c *Channel) Dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
		return fmt.Errorf("transport: dial %s: %w", c.url, err)
	}
	// Processed frames are raw JPEGs; the default 32KB cap is too small.
	conn.SetReadLimit(1 << 22)

	c.mu.Lock()
	c.conn = conn
	c.state = StateLive
	replay := []Command{}
	if c.reaction.Known() {
		replay = append(replay, Command{Type: "set_reaction", ReactionType: c.reaction})
	}
	if c.chemical != "" {
		replay = append(replay, Command{Type: "set_chemical", ChemicalID: c.chemical})
	}
	readCtx, cancel := context.WithCancel(context.Background())
	c.cancelRead = cancel
	c.mu.Unlock()

	for _, cmd := range replay {
		if err := c.writeJSON(cmd); err != nil {
			c.log.WithError(err).Warn("setup replay failed")
		}
	}

	go c.readLoop(readCtx, conn)

	if c.hooks.OnLive != nil {
		c.hooks.OnLive()
	}
	c.log.WithField("url", c.url).Info("transport live")
	return nil
}

// SetReaction records the indicator mode and, if the channel is live,
// mirrors it to the server immediately. While still connecting, the
// recorded value is what the open replay will transmit.
func (c *Channel) SetReaction(mode models.IndicatorMode) {
	c.mu.Lock()
	c.reaction = mode
	live := c.state == StateLive
	c.mu.Unlock()

	if live {
		if err := c.writeJSON(Command{Type: "set_reaction", ReactionType: mode}); err != nil {
			c.log.WithError(err).Warn("set_reaction send failed")
		}
	}
}

// SetChemical records the selected chemical and mirrors it when live,
// with the same replay semantics as SetReaction.
func (c *Channel) SetChemical(id string) {
	c.mu.Lock()
	c.chemical = id
	live := c.state == StateLive
	c.mu.Unlock()

	if live {
		if err := c.writeJSON(Command{Type: "set_chemical", ChemicalID: id}); err != nil {
			c.log.WithError(err).Warn("set_chemical send failed")
		}
	}
}

// SendFrame transmits one encoded frame as a single binary message with
// no envelope. Returns an error if the channel is not live.
func (c *Channel) SendFrame(ctx context.Context, frame []byte) error {
	c.mu.Lock()
	conn, state := c.conn, c.state
	c.mu.Unlock()

	if state != StateLive {
		return fmt.Errorf("transport: not live")
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageBinary, frame)
}

// Close shuts the channel down from the session side. Idempotent.
func (c *Channel) Close() {
	c.shutdown(nil, websocket.StatusNormalClosure, "session ended")
}

// shutdown transitions to closed at most once and fires OnClosed.
func (c *Channel) shutdown(cause error, code websocket.StatusCode, reason string) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	conn := c.conn
	cancel := c.cancelRead
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close(code, reason)
	}
	if c.hooks.OnClosed != nil {
		c.hooks.OnClosed(cause)
	}
}

// readLoop consumes inbound messages until the connection dies or the
// channel is closed. Binary payloads are handed to the frame sink; text
// payloads are JSON control events. Malformed payloads of either kind are
// dropped silently without affecting channel health.
func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				c.shutdown(nil, websocket.StatusNormalClosure, "")
			} else {
				c.log.WithError(err).Warn("transport read error")
				c.shutdown(err, websocket.StatusInternalError, "read error")
			}
			return
		}

		switch typ {
		case websocket.MessageBinary:
			c.sink.Render(data)
		case websocket.MessageText:
			var ev Event
			if err := json.Unmarshal(data, &ev); err != nil || ev.Type == "" {
				c.log.WithField("payload", string(data)).Debug("dropping malformed control event")
				continue
			}
			if c.hooks.OnEvent != nil {
				c.hooks.OnEvent(ev)
			}
		}
	}
}

// writeJSON marshals and sends one control command with a write timeout.
func (c *Channel) writeJSON(cmd Command) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("transport: no connection")
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("transport: marshal %s: %w", cmd.Type, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
