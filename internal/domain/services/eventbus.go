package services

import (
	"context"

	"quix/internal/domain/models"
)

// EventBus applies ordered batches of actions atomically
type EventBus interface {
	// Emit folds every action in order against one transactional scope. The
	// first failing action aborts the whole batch and is reported as a
	// *domain.ActionError.
	Emit(ctx context.Context, actorID string, actions []models.Action) (*models.BatchApplied, error)

	// Subscribe registers a collaborator notified once per committed batch
	Subscribe(subscriber Subscriber)
}

// Subscriber consumes committed batches. Delivery is at-least-once; a
// subscriber must tolerate seeing the same BatchID twice.
type Subscriber interface {
	Name() string
	Notify(ctx context.Context, batch *models.BatchApplied) error
}
