package sequence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrMissingPartition is returned when a sequence is requested without a partition key.
var ErrMissingPartition = errors.New("partition key is required")

// Allocator hands out producer-side sequence numbers per partition.
type Allocator interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// Repository allocates sequences in the event_sequence table. Each call is its
// own statement so a number is never reused, even when publishing later fails.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, ErrMissingPartition
	}

	var seq int64
	if err := r.db.QueryRowContext(ctx, `
		INSERT INTO event_sequence (partition_key, last_sequence, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (partition_key)
		DO UPDATE SET last_sequence = event_sequence.last_sequence + 1, updated_at = NOW()
		RETURNING last_sequence
	`, partitionKey).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
