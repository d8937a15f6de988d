// Package eventsourcing applies ordered batches of actions to the workspace
// aggregates. A batch is folded action by action through a session that
// caches everything it touches, then persisted as one change set.
package eventsourcing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"quix/internal/config"
	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/domain/repositories"
	"quix/internal/domain/services"
)

// Config tunes the event bus
type Config struct {
	MaxBatchSize      int
	NotifyMaxAttempts int
	NotifyRetryDelay  time.Duration

	// NotifyTimeout bounds the fan-out of one batch; zero means no bound
	NotifyTimeout time.Duration

	// Clock stamps dateCreated/dateUpdated; it is read once per batch
	Clock func() time.Time
}

type eventBus struct {
	store     repositories.WorkspaceStore
	txManager repositories.TransactionManager
	cfg       Config
	scopes    *scopeLocks
	notifier  *notifier
	logger    *slog.Logger
}

// NewEventBus creates the event bus
func NewEventBus(
	store repositories.WorkspaceStore,
	txManager repositories.TransactionManager,
	cfg Config,
	logger *slog.Logger,
) services.EventBus {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = config.MaxBatchSize
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &eventBus{
		store:     store,
		txManager: txManager,
		cfg:       cfg,
		scopes:    newScopeLocks(),
		notifier: &notifier{
			maxAttempts: cfg.NotifyMaxAttempts,
			retryDelay:  cfg.NotifyRetryDelay,
			timeout:     cfg.NotifyTimeout,
			logger:      logger,
		},
		logger: logger,
	}
}

func (b *eventBus) Subscribe(subscriber services.Subscriber) {
	b.notifier.add(subscriber)
}

// Emit applies actions in order against a single transaction. Batches of the
// same actor are serialized; the first failing action rolls back the batch.
func (b *eventBus) Emit(ctx context.Context, actorID string, actions []models.Action) (*models.BatchApplied, error) {
	if actorID == "" {
		return nil, domain.NewValidationError("actor id is required")
	}
	if len(actions) == 0 {
		return nil, domain.NewValidationError("batch must contain at least one action")
	}
	if len(actions) > b.cfg.MaxBatchSize {
		return nil, domain.NewValidationError("batch of %d actions exceeds the limit of %d", len(actions), b.cfg.MaxBatchSize)
	}

	release, err := b.scopes.acquire(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("acquire scope for %s: %w", actorID, err)
	}
	defer release()

	batchID := uuid.NewString()
	now, ok := batchTime(ctx)
	if !ok {
		now = b.cfg.Clock()
	}

	var changes *models.ChangeSet
	err = b.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		s := newSession(txCtx, b.store, actorID, now)
		for i, a := range actions {
			if err := s.apply(a); err != nil {
				return &domain.ActionError{Index: i, ActionID: a.ID, ActionType: string(a.Type), Err: err}
			}
		}

		changes = s.changes(batchID, actions)
		if err := b.store.SaveBatch(txCtx, changes); err != nil {
			return fmt.Errorf("save batch: %w", err)
		}
		return nil
	})
	if err != nil {
		b.logger.Warn("batch rejected",
			"batch_id", batchID,
			"actor_id", actorID,
			"actions", len(actions),
			"error", err,
		)
		return nil, err
	}

	applied := &models.BatchApplied{
		BatchID:  batchID,
		ActorID:  actorID,
		Actions:  stamped(actions, actorID),
		Upserted: changes.Upserted(),
		Deleted:  changes.Deleted(),
	}
	b.logger.Debug("batch committed",
		"batch_id", batchID,
		"actor_id", actorID,
		"actions", len(actions),
		"upserted", len(applied.Upserted),
		"deleted", len(applied.Deleted),
	)

	// Still inside the scope, so subscribers see batches of one actor in commit
	// order. The emitter going away must not cut delivery short; NotifyTimeout
	// bounds it instead.
	b.notifier.publish(context.WithoutCancel(ctx), applied)

	return applied, nil
}

type batchTimeKey struct{}

// WithBatchTime pins the time stamped on batches emitted with ctx, in place
// of the bus clock. Replay uses it so rebuilt records and journal entries
// keep the dates of the original commit.
func WithBatchTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, batchTimeKey{}, t)
}

func batchTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(batchTimeKey{}).(time.Time)
	return t, ok
}

func stamped(actions []models.Action, actorID string) []models.Action {
	out := make([]models.Action, len(actions))
	for i, a := range actions {
		a.ActorID = actorID
		a.Payload = normalizePayload(a.Payload)
		out[i] = a
	}
	return out
}
