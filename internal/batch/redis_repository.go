package batch

import (
	"context"

	"github.com/amankumarsingh77/media-resolver/internal/models"
)

// ProgressRepository stores batch counters so a running batch can be polled.
// Get returns nil, nil for an unknown or expired batch.
type ProgressRepository interface {
	Save(ctx context.Context, progress models.BatchProgress) error
	Get(ctx context.Context, batchID string) (*models.BatchProgress, error)
}
