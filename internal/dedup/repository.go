package dedup

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

// Verdict is the outcome of checking an incoming sequence against the checkpoint.
type Verdict int

const (
	// Apply means the event is new and in order.
	Apply Verdict = iota
	// ApplyAfterGap means the event is new but at least one earlier sequence was never seen.
	ApplyAfterGap
	// Skip means the event was already processed.
	Skip
)

// Repository stores per-consumer, per-partition checkpoints in event_dedup_checkpoint.
type Repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// WithExecutor returns a shallow copy using the provided executor (e.g., a transaction).
func (r *Repository) WithExecutor(q db.Querier) *Repository {
	return &Repository{q: q}
}

// GetLastSequence returns the last processed sequence for a consumer/partition.
// The boolean indicates whether a checkpoint existed.
func (r *Repository) GetLastSequence(ctx context.Context, consumerName, partitionKey string) (int64, bool, error) {
	var last int64
	if err := r.q.QueryRow(ctx, `
		SELECT last_sequence
		FROM event_dedup_checkpoint
		WHERE consumer_name=$1 AND partition_key=$2
	`, consumerName, partitionKey).Scan(&last); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("select checkpoint: %w", err)
	}
	return last, true, nil
}

// Check compares seq with the stored checkpoint. A zero seq carries no
// ordering information and is always applied.
func (r *Repository) Check(ctx context.Context, consumerName, partitionKey string, seq int64) (Verdict, int64, error) {
	if seq == 0 {
		return Apply, 0, nil
	}
	last, ok, err := r.GetLastSequence(ctx, consumerName, partitionKey)
	if err != nil {
		return Apply, 0, err
	}
	switch {
	case !ok:
		return Apply, 0, nil
	case seq <= last:
		return Skip, last, nil
	case seq > last+1:
		return ApplyAfterGap, last, nil
	default:
		return Apply, last, nil
	}
}

// UpsertLastSequence advances the checkpoint ensuring monotonic progress even under races.
func (r *Repository) UpsertLastSequence(ctx context.Context, consumerName, partitionKey string, newSeq int64) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO event_dedup_checkpoint (consumer_name, partition_key, last_sequence)
		VALUES ($1, $2, $3)
		ON CONFLICT (consumer_name, partition_key)
		DO UPDATE SET
			last_sequence = GREATEST(event_dedup_checkpoint.last_sequence, EXCLUDED.last_sequence),
			updated_at = now()
	`, consumerName, partitionKey, newSeq)
	if err != nil {
		return fmt.Errorf("upsert checkpoint: %w", err)
	}
	return nil
}
