package eventsourcing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"quix/internal/domain/models"
	"quix/internal/domain/services"
)

// notifier fans a committed batch out to every subscriber. A failing
// subscriber is retried up to maxAttempts times, and the whole fan-out is
// bounded by timeout since it runs while the actor's scope is held.
// Failures are logged and never reach the emitter: the batch is already
// committed.
type notifier struct {
	mu          sync.RWMutex
	subscribers []services.Subscriber
	maxAttempts int
	retryDelay  time.Duration
	timeout     time.Duration
	logger      *slog.Logger
}

func (n *notifier) add(sub services.Subscriber) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribers = append(n.subscribers, sub)
}

func (n *notifier) snapshot() []services.Subscriber {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]services.Subscriber, len(n.subscribers))
	copy(out, n.subscribers)
	return out
}

func (n *notifier) publish(ctx context.Context, batch *models.BatchApplied) {
	subs := n.snapshot()
	if len(subs) == 0 {
		return
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	// A plain group: one subscriber giving up must not cancel the others
	var g errgroup.Group
	for _, sub := range subs {
		g.Go(func() error {
			return n.deliver(ctx, sub, batch)
		})
	}
	if err := g.Wait(); err != nil {
		n.logger.Error("batch not delivered to every subscriber",
			"batch_id", batch.BatchID,
			"actor_id", batch.ActorID,
			"error", err,
		)
	}
}

func (n *notifier) deliver(ctx context.Context, sub services.Subscriber, batch *models.BatchApplied) error {
	attempts := n.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = sub.Notify(ctx, batch); err == nil {
			return nil
		}

		n.logger.Warn("subscriber notification failed",
			"subscriber", sub.Name(),
			"batch_id", batch.BatchID,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("subscriber %s: delivery cut off after %d attempts: %w", sub.Name(), attempt, ctx.Err())
		case <-time.After(n.retryDelay):
		}
	}

	return fmt.Errorf("subscriber %s gave up after %d attempts: %w", sub.Name(), attempts, err)
}

// LogSubscriber logs every committed batch
type LogSubscriber struct {
	Logger *slog.Logger
}

func (l *LogSubscriber) Name() string { return "log" }

func (l *LogSubscriber) Notify(ctx context.Context, batch *models.BatchApplied) error {
	l.Logger.InfoContext(ctx, "batch applied",
		"batch_id", batch.BatchID,
		"actor_id", batch.ActorID,
		"actions", len(batch.Actions),
		"upserted", len(batch.Upserted),
		"deleted", len(batch.Deleted),
	)
	return nil
}
