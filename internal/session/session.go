// internal/session/session.go

// Package session orchestrates one lab session: camera acquisition, the
// streaming transport, the request channel, the fallback poll, and the
// reaction display state. All cross-component communication funnels
// through here; no component mutates another's internal state.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gestured/labstream/internal/api"
	"github.com/gestured/labstream/internal/capture"
	"github.com/gestured/labstream/internal/encoder"
	"github.com/gestured/labstream/internal/models"
	"github.com/gestured/labstream/internal/reaction"
	"github.com/gestured/labstream/internal/transport"
)

// Options wires a session to its collaborators.
type Options struct {
	Log          *logrus.Logger
	API          *api.Client
	TransportURL string

	// OpenDevice acquires the camera. Failure is terminal for the session.
	OpenDevice func() (capture.Device, error)

	// Sink receives inbound processed frames.
	Sink transport.FrameSink

	FrameInterval time.Duration
	PollInterval  time.Duration
}

// Session is the aggregate session state plus its lifecycle controller.
type Session struct {
	id   uuid.UUID
	opts Options
	log  *logrus.Entry

	channel *transport.Channel
	cadence *encoder.Cadence
	cell    *reaction.Cell

	mu            sync.Mutex
	device        capture.Device
	selection     *models.Chemical
	pending       bool
	indicator     models.IndicatorMode
	status        models.ConnectionStatus
	catalog       []models.Chemical
	torn          bool
	cancelPoll    context.CancelFunc
	cancelCadence context.CancelFunc

	ended chan struct{}
}

// New builds a session. Run starts it.
func New(opts Options) *Session {
	id := uuid.New()
	s := &Session{
		id:      id,
		opts:    opts,
		log:     opts.Log.WithField("session", id),
		cell:    reaction.NewCell(),
		status:  models.StatusConnecting,
		catalog: models.DefaultCatalog,
		ended:   make(chan struct{}),
	}
	s.channel = transport.New(opts.TransportURL, opts.Sink, transport.Hooks{
		OnLive:   s.onLive,
		OnEvent:  s.onEvent,
		OnClosed: s.onTransportClosed,
	}, opts.Log)
	return s
}

// Run executes the startup sequence and blocks until the session ends:
// acquire camera, open transport (frame cadence starts on live), fetch
// catalog and initial indicator mode, start the fallback poll. A failure
// in camera acquisition or transport dial aborts startup and surfaces an
// error connection status. Run always tears the session down before
// returning.
func (s *Session) Run(ctx context.Context) error {
	dev, err := s.opts.OpenDevice()
	if err != nil {
		s.setStatus(models.StatusError)
		return fmt.Errorf("session: acquire camera: %w", err)
	}
	s.mu.Lock()
	s.device = dev
	s.mu.Unlock()

	s.cadence = encoder.NewCadence(dev, s.channel.SendFrame, s.opts.FrameInterval, s.opts.Log)

	if err := s.channel.Dial(ctx); err != nil {
		s.setStatus(models.StatusError)
		dev.Close()
		return fmt.Errorf("session: open transport: %w", err)
	}
	s.setStatus(models.StatusLive)

	// Catalog and initial indicator mode load independently of the
	// transport; failures leave the defaults in place.
	go s.loadCatalog(ctx)
	go s.loadIndicator(ctx)

	pollCtx, cancelPoll := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancelPoll = cancelPoll
	s.mu.Unlock()
	poller := api.NewPoller(s.opts.API, s.opts.PollInterval, s.onPollComplete, s.opts.Log)
	go poller.Run(pollCtx)

	select {
	case <-ctx.Done():
		s.Shutdown()
	case <-s.ended:
	}
	return nil
}

// Shutdown is the one-shot teardown. Every exit path (parent context
// cancellation, transport failure, explicit call) funnels here; only the
// first trigger does any work. Order: stop the fallback poll, close the
// transport (which stops the frame cadence), release the camera, then
// fire the stop notification without waiting for it.
func (s *Session) Shutdown() {
	s.mu.Lock()
	if s.torn {
		s.mu.Unlock()
		return
	}
	s.torn = true
	if s.status == models.StatusLive {
		s.status = models.StatusError
	}
	cancelPoll := s.cancelPoll
	cancelCadence := s.cancelCadence
	dev := s.device
	s.selection = nil
	s.pending = false
	s.mu.Unlock()

	if cancelPoll != nil {
		cancelPoll()
	}
	s.channel.Close()
	if cancelCadence != nil {
		cancelCadence()
	}
	if dev != nil {
		dev.Close()
	}
	s.opts.API.StopAsync()
	s.log.Info("session torn down")
	close(s.ended)
}

// Done is closed once teardown has completed.
func (s *Session) Done() <-chan struct{} { return s.ended }

// Select posts a substance selection. On failure the previous selection
// is retained and the pending flag is cleared; on success the selection
// is also mirrored over the streaming transport.
func (s *Session) Select(ctx context.Context, chemicalID string) error {
	s.mu.Lock()
	chem := models.FindChemical(s.catalog, chemicalID)
	if chem == nil {
		s.mu.Unlock()
		return fmt.Errorf("session: unknown chemical %q", chemicalID)
	}
	s.pending = true
	s.mu.Unlock()

	err := s.opts.API.SetChemical(ctx, chemicalID)

	s.mu.Lock()
	s.pending = false
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("session: select %s: %w", chemicalID, err)
	}
	s.selection = chem
	s.mu.Unlock()

	s.channel.SetChemical(chemicalID)
	s.log.WithField("chemical", chemicalID).Info("chemical selected")
	return nil
}

// SetIndicator records the indicator mode and mirrors it to the
// transport. Called from the initial-state fetch and from inbound
// control events that carry a mode.
func (s *Session) SetIndicator(mode models.IndicatorMode) {
	if !mode.Known() {
		return
	}
	s.mu.Lock()
	s.indicator = mode
	s.mu.Unlock()
	s.channel.SetReaction(mode)
}

// Complete commits a reaction outcome from either reporting path. Omitted
// snapshots are filled from the current selection and indicator mode at
// the moment of completion. Only the first caller wins; the fallback poll
// is cancelled the instant an outcome is committed.
func (s *Session) Complete(chem *models.Chemical, mode models.IndicatorMode) {
	s.mu.Lock()
	if chem == nil {
		chem = s.selection
	}
	if !mode.Known() {
		mode = s.indicator
	}
	cancelPoll := s.cancelPoll
	s.mu.Unlock()

	reacted := true
	if chem != nil {
		reacted = reaction.WillReact(mode, chem.Type)
	}
	outcome := models.Outcome{Chemical: chem, Indicator: mode, Reacted: reacted}
	if !s.cell.Set(outcome) {
		return
	}
	if cancelPoll != nil {
		cancelPoll()
	}
	s.log.WithField("message", reaction.RevealMessage(outcome)).Info("reaction complete")
}

// DisplayState derives the idle / hint / revealed state.
func (s *Session) DisplayState() reaction.DisplayState {
	s.mu.Lock()
	sel, mode := s.selection, s.indicator
	s.mu.Unlock()
	return reaction.State(sel, mode, s.cell)
}

// Hint returns the pre-reaction explanation for the current selection.
// Only meaningful in the hint state.
func (s *Session) Hint() (reaction.Hint, bool) {
	s.mu.Lock()
	sel, mode := s.selection, s.indicator
	s.mu.Unlock()
	if sel == nil || !mode.Known() {
		return reaction.Hint{}, false
	}
	return reaction.Explain(mode, sel.Type), true
}

// Outcome returns the committed outcome, if any.
func (s *Session) Outcome() (models.Outcome, bool) { return s.cell.Get() }

// Status returns the derived connection status.
func (s *Session) Status() models.ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Selection returns the active selection and whether a selection request
// is still in flight.
func (s *Session) Selection() (*models.Chemical, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection, s.pending
}

// Catalog returns the chemical catalog currently in use.
func (s *Session) Catalog() []models.Chemical {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// onLive starts the frame cadence once the transport reports open.
func (s *Session) onLive() {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancelCadence = cancel
	s.mu.Unlock()
	go s.cadence.Run(ctx)
}

// onEvent dispatches inbound control events.
func (s *Session) onEvent(ev transport.Event) {
	switch ev.Type {
	case "reaction_complete":
		if ev.ReactionType.Known() {
			s.SetIndicator(ev.ReactionType)
		}
		s.Complete(ev.Chemical, ev.ReactionType)
	case "set_reaction":
		s.SetIndicator(ev.ReactionType)
	default:
		s.log.WithField("type", ev.Type).Debug("ignoring control event")
	}
}

// onTransportClosed surfaces transport failure and funnels into teardown.
// Transport closure is terminal for the session; there is no reconnect.
func (s *Session) onTransportClosed(err error) {
	if err != nil {
		s.log.WithError(err).Warn("transport closed")
		s.setStatus(models.StatusError)
	}
	go s.Shutdown()
}

func (s *Session) onPollComplete(st api.Status) {
	s.Complete(st.Chemical, st.ReactionType)
}

func (s *Session) loadCatalog(ctx context.Context) {
	chems, err := s.opts.API.Chemicals(ctx)
	if err != nil {
		s.log.WithError(err).Warn("catalog fetch failed, using built-in catalog")
		return
	}
	s.mu.Lock()
	s.catalog = chems
	s.mu.Unlock()
}

func (s *Session) loadIndicator(ctx context.Context) {
	mode, err := s.opts.API.CurrentReaction(ctx)
	if err != nil {
		s.log.WithError(err).Warn("initial indicator fetch failed")
		return
	}
	s.SetIndicator(mode)
}

func (s *Session) setStatus(st models.ConnectionStatus) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}
