// Package worker drains the notification outbox. Lifecycle transitions only
// write outbox rows; this dispatcher owns delivery, so a websocket hiccup can
// never affect an already-committed state change.
package worker

import (
	"context"
	"log"
	"time"

	"credito/internal/repository"
	ws "credito/internal/websocket"
)

const batchSize = 50

// Dispatcher polls undelivered notifications and pushes them through the hub.
type Dispatcher struct {
	repo     repository.NotificationRepository
	hub      *ws.Hub
	interval time.Duration
}

func NewDispatcher(repo repository.NotificationRepository, hub *ws.Hub, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Dispatcher{repo: repo, hub: hub, interval: interval}
}

// Run loops until ctx is cancelled. Rows that cannot be delivered (nobody
// connected) stay undelivered and are retried on the next tick.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	pending, err := d.repo.ListUndelivered(ctx, batchSize)
	if err != nil {
		log.Printf("dispatcher: failed to list undelivered notifications: %v", err)
		return
	}

	for _, n := range pending {
		var delivered bool
		if n.TargetUserID != nil {
			delivered = d.hub.SendToUser(n.TargetUserID.String(), n.Type, n.Message, n.Metadata)
		} else if n.TargetRole != "" {
			delivered = d.hub.SendToRole(n.TargetRole, n.Type, n.Message, n.Metadata)
		}

		if !delivered {
			continue // retried next tick
		}
		if err := d.repo.MarkDelivered(ctx, n.ID); err != nil {
			log.Printf("dispatcher: failed to mark notification %s delivered: %v", n.ID, err)
		}
	}
}
