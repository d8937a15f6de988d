package eventsourcing

import (
	"context"
	"fmt"
	"sort"

	"quix/internal/domain/models"
	"quix/internal/domain/services"
)

// Replay re-emits journal entries batch by batch in commit order. Entries
// sharing a BatchID are emitted together so batch atomicity is preserved,
// and each batch is stamped with its original CreatedAt rather than the
// target bus clock. It returns the number of batches applied.
func Replay(ctx context.Context, bus services.EventBus, entries []models.JournalEntry) (int, error) {
	ordered := make([]models.JournalEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	applied := 0
	for start := 0; start < len(ordered); {
		end := start + 1
		for end < len(ordered) && ordered[end].BatchID == ordered[start].BatchID {
			end++
		}

		batch := ordered[start:end]
		sort.SliceStable(batch, func(i, j int) bool { return batch[i].Seq < batch[j].Seq })

		actions := make([]models.Action, len(batch))
		for i, e := range batch {
			actions[i] = e.Action()
		}
		batchCtx := WithBatchTime(ctx, batch[0].CreatedAt)
		if _, err := bus.Emit(batchCtx, batch[0].ActorID, actions); err != nil {
			return applied, fmt.Errorf("replay batch %s: %w", batch[0].BatchID, err)
		}

		applied++
		start = end
	}
	return applied, nil
}
