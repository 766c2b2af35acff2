package resolve

import (
	"context"

	"github.com/amankumarsingh77/media-resolver/internal/models"
)

type UseCase interface {
	Resolve(ctx context.Context, rawURL string, opts models.ResolveOptions) models.ResolveResult
}
