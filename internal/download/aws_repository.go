package download

import (
	"context"
	"time"

	"github.com/amankumarsingh77/media-resolver/internal/models"
)

type AWSRepository interface {
	PutObject(ctx context.Context, input *models.HandoffObject) error
	PresignGetObject(ctx context.Context, bucket, key, filename string, ttl time.Duration) (string, error)
}
