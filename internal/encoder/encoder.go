// internal/encoder/encoder.go

// Package encoder drives the outbound frame cadence: it samples the
// capture source on a fixed interval and hands each encoded frame to the
// transport, keeping at most one encode-and-send in flight.
package encoder

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Source produces one encoded frame per call.
type Source interface {
	Snapshot() ([]byte, error)
}

// SendFunc transmits one encoded frame.
type SendFunc func(ctx context.Context, frame []byte) error

// Cadence is the fixed-interval frame pump. If a tick fires while the
// previous frame is still being captured or sent, that tick is skipped
// entirely rather than queued.
type Cadence struct {
	src      Source
	send     SendFunc
	interval time.Duration
	log      *logrus.Logger

	busy    atomic.Bool
	ticks   atomic.Int64
	sent    atomic.Int64
	skipped atomic.Int64
}

// NewCadence builds a frame pump over src that transmits via send.
func NewCadence(src Source, send SendFunc, interval time.Duration, log *logrus.Logger) *Cadence {
	return &Cadence{src: src, send: send, interval: interval, log: log}
}

// Run pumps frames until ctx is cancelled. A tick whose capture or send
// fails is dropped silently; the cadence timer keeps running.
func (c *Cadence) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.ticks.Add(1)
			if !c.busy.CompareAndSwap(false, true) {
				c.skipped.Add(1)
				continue
			}
			go c.pump(ctx)
		}
	}
}

func (c *Cadence) pump(ctx context.Context) {
	defer c.busy.Store(false)

	frame, err := c.src.Snapshot()
	if err != nil {
		c.log.WithError(err).Debug("frame capture failed, tick dropped")
		return
	}
	if err := c.send(ctx, frame); err != nil {
		c.log.WithError(err).Debug("frame send failed, tick dropped")
		return
	}
	c.sent.Add(1)
}

// Ticks returns how many cadence ticks have fired.
func (c *Cadence) Ticks() int64 { return c.ticks.Load() }

// Sent returns how many frames were fully transmitted.
func (c *Cadence) Sent() int64 { return c.sent.Load() }

// Skipped returns how many ticks were dropped due to an in-flight frame.
func (c *Cadence) Skipped() int64 { return c.skipped.Load() }
