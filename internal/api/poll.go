// internal/api/poll.go
package api

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Poller is the completion-status safety net. The push event over the
// streaming channel normally arrives first; the poll catches the case
// where that message is lost. Polling status/ also refreshes the
// server-side session heartbeat.
type Poller struct {
	client     *Client
	interval   time.Duration
	onComplete func(Status)
	log        *logrus.Logger
}

// NewPoller builds a poller that reports the first complete status it sees.
func NewPoller(client *Client, interval time.Duration, onComplete func(Status), log *logrus.Logger) *Poller {
	return &Poller{client: client, interval: interval, onComplete: onComplete, log: log}
}

// Run polls until ctx is cancelled or a completion is observed. A failed
// poll attempt is never fatal; it is logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st, err := p.client.Status(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.log.WithError(err).Debug("status poll failed, will retry")
				continue
			}
			if st.Complete {
				p.onComplete(st)
				return
			}
		}
	}
}
