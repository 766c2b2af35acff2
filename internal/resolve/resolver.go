package resolve

import (
	"context"

	"github.com/amankumarsingh77/media-resolver/internal/models"
)

// Resolver turns a page URL into a VideoInfo. Failure is reported in the
// result, never by panicking.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, rawURL string, opts models.ResolveOptions) models.ResolveResult
}

// CaptionSource lists subtitle tracks for a YouTube video id.
type CaptionSource interface {
	Captions(ctx context.Context, videoID string) ([]models.Subtitle, error)
}

// SizeProber fills missing format sizes in place.
type SizeProber interface {
	Probe(ctx context.Context, formats []models.VideoFormat)
}
