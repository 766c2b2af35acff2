package download

import (
	"context"

	"github.com/amankumarsingh77/media-resolver/internal/models"
)

type UseCase interface {
	// Execute runs the job under downloadID; Cancel(downloadID) aborts it until the
	// returned body is closed.
	Execute(ctx context.Context, downloadID string, job *models.DownloadJob, onProgress models.ProgressFunc) (*models.DownloadResult, error)
	Cancel(downloadID string) bool
}
