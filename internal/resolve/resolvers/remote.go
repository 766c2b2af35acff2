package resolvers

import (
	"context"

	"github.com/google/uuid"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/platform"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

// remoteParser is the part of the transcoding service client used for resolution.
type remoteParser interface {
	Parse(ctx context.Context, rawURL string) (*models.VideoInfo, error)
}

// Remote delegates resolution to the transcoding service's /parse endpoint.
type Remote struct {
	service remoteParser
	logger  logger.Logger
}

func NewRemote(service remoteParser, log logger.Logger) *Remote {
	return &Remote{service: service, logger: log}
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Resolve(ctx context.Context, rawURL string, _ models.ResolveOptions) models.ResolveResult {
	info, err := r.service.Parse(ctx, rawURL)
	if err != nil {
		r.logger.Warnf("Remote.Resolve - parse error: %v", err)
		return models.Failed("remote resolution failed: " + err.Error())
	}
	if info.OriginalURL == "" {
		info.OriginalURL = rawURL
	}
	// the service may omit the id; batch dedup keys on it
	if info.ID == "" {
		info.ID = firstNonEmpty(platform.ExtractVideoID(rawURL, platform.Detect(rawURL)), uuid.NewString())
	}
	return models.Succeeded(info)
}
