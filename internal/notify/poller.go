// Package notify polls the back-office API for new notifications and fans
// them out to connected clients.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/shipdesk/intake/internal/session"
	"github.com/shipdesk/intake/pkg/models"
	"github.com/sirupsen/logrus"
)

// Source fetches the notification feed. *rateapi.Client satisfies it.
type Source interface {
	GetNotifications(ctx context.Context, sess *session.Session) ([]models.Notification, error)
}

// Sink receives each notification not seen before. *ws.Hub satisfies it.
type Sink interface {
	Notify(n models.Notification)
}

// Poller fetches the feed on an interval, deduplicates by notification ID
// and forwards only unseen entries. It fetches once immediately on start.
type Poller struct {
	source   Source
	sink     Sink
	sess     *session.Session
	interval time.Duration
	logger   *logrus.Logger

	mu     sync.Mutex
	seen   map[string]bool
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(source Source, sink Sink, sess *session.Session, interval time.Duration, logger *logrus.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		source:   source,
		sink:     sink,
		sess:     sess,
		interval: interval,
		logger:   logger,
		seen:     make(map[string]bool),
	}
}

// Start launches the polling loop. Calling Start on a running poller is a
// no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, done)
}

// Stop cancels the loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// run closes done on exit. The channel is handed over by Start so that a
// Stop racing the launch never sees it nilled out from under the goroutine.
func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.fetch(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Notification poller stopped")
			return
		case <-ticker.C:
			p.fetch(ctx)
		}
	}
}

func (p *Poller) fetch(ctx context.Context) {
	notifications, err := p.source.GetNotifications(ctx, p.sess)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.WithError(err).Warn("Failed to fetch notifications")
		return
	}

	fresh := p.markSeen(notifications)
	for _, n := range fresh {
		p.logger.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"type":            n.Type,
		}).Info("New notification")
		p.sink.Notify(n)
	}
}

// markSeen records IDs and returns only notifications not seen before.
func (p *Poller) markSeen(notifications []models.Notification) []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()

	var fresh []models.Notification
	for _, n := range notifications {
		if n.ID == "" || p.seen[n.ID] {
			continue
		}
		p.seen[n.ID] = true
		fresh = append(fresh, n)
	}
	return fresh
}
