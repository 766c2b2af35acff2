package batch

import (
	"context"

	"github.com/amankumarsingh77/media-resolver/internal/models"
)

type UseCase interface {
	Run(ctx context.Context, batchID string, urls []string, onProgress models.BatchProgressFunc) (*models.BatchReport, error)
	Progress(ctx context.Context, batchID string) (*models.BatchProgress, error)
}
