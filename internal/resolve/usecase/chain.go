package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/amankumarsingh77/media-resolver/internal/config"
	"github.com/amankumarsingh77/media-resolver/internal/formats"
	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/platform"
	"github.com/amankumarsingh77/media-resolver/internal/resolve"
	"github.com/amankumarsingh77/media-resolver/internal/resolve/resolvers"
	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

const unknownTitle = "unknown title"

type resolveUC struct {
	cfg       *config.Config
	dedicated map[models.Platform]resolve.Resolver
	generic   resolve.Resolver
	metadata  resolve.Resolver
	remote    resolve.Resolver
	captions  resolve.CaptionSource
	prober    resolve.SizeProber
	backfill  models.PlatformSet
	fallback  models.PlatformSet
	logger    logger.Logger
}

func NewResolveUseCase(cfg *config.Config, set *resolvers.Set, prober resolve.SizeProber, log logger.Logger) resolve.UseCase {
	return &resolveUC{
		cfg:       cfg,
		dedicated: set.Dedicated,
		generic:   set.Generic,
		metadata:  set.Metadata,
		remote:    set.Remote,
		captions:  set.Captions,
		prober:    prober,
		backfill:  models.NewPlatformSet(cfg.Resolver.MetadataBackfillPlatforms),
		fallback:  models.NewPlatformSet(cfg.Resolver.MetadataFallbackPlatforms),
		logger:    log,
	}
}

func (u *resolveUC) Resolve(ctx context.Context, rawURL string, opts models.ResolveOptions) models.ResolveResult {
	target := platform.Normalize(rawURL)
	if err := platform.Validate(target); err != nil {
		return models.Failed(httperrors.UserMessage(err))
	}
	detected := platform.Detect(target)
	u.logger.Infof("Resolve - %s detected as %s", target, detected)

	remoteTried := false
	if detected == models.PlatformYouTube && u.cfg.Resolver.YoutubeRemoteFirst && u.remote != nil {
		remoteTried = true
		res := u.attempt(ctx, u.remote, target, opts)
		if res.OK() {
			res.Data.Platform = detected
			return u.enrich(ctx, target, res)
		}
		u.logger.Warnf("Resolve - remote first for %s failed: %s", target, res.Error)
	}

	res := models.Failed(fmt.Sprintf("no resolver available for %s", detected))
	dedicatedFailed := false
	if r, ok := u.dedicated[detected]; ok {
		res = u.attempt(ctx, r, target, opts)
		dedicatedFailed = !res.OK()
	}

	if !res.OK() && u.generic != nil {
		res = u.attempt(ctx, u.generic, target, opts)
		if res.OK() {
			res.Data.Platform = detected.OrOther()
			if dedicatedFailed && u.backfill.Has(detected) {
				u.backfillMetadata(ctx, target, opts, res.Data)
			}
		}
	}

	if !res.OK() && u.metadata != nil && u.fallback.Has(detected) {
		res = u.attempt(ctx, u.metadata, target, opts)
		if res.OK() {
			res.Data.Platform = detected
		}
	}

	if !res.OK() && !remoteTried && u.remote != nil {
		res = u.attempt(ctx, u.remote, target, opts)
		if res.OK() {
			res.Data.Platform = detected.OrOther()
		}
	}

	if !res.OK() {
		u.logger.Errorf("Resolve - every step failed for %s: %s", target, res.Error)
		return res
	}
	return u.enrich(ctx, target, res)
}

// attempt runs one resolver step. A panic or an empty success is a failure.
func (u *resolveUC) attempt(ctx context.Context, r resolve.Resolver, target string, opts models.ResolveOptions) (res models.ResolveResult) {
	defer func() {
		if rec := recover(); rec != nil {
			u.logger.Errorf("attempt - %s panic: %v", r.Name(), rec)
			res = models.Failed(fmt.Sprintf("%s resolver crashed", r.Name()))
		}
	}()

	res = r.Resolve(ctx, target, opts)
	if !res.OK() {
		if res.Error == "" {
			res = models.Failed(r.Name() + " resolver failed")
		}
		u.logger.Debugf("attempt - %s failed: %s", r.Name(), res.Error)
	}
	return res
}

// backfillMetadata overlays the aggregator's descriptive fields onto a scraped result.
// Media links and the platform tag of the scraped result stay.
func (u *resolveUC) backfillMetadata(ctx context.Context, target string, opts models.ResolveOptions, info *models.VideoInfo) {
	meta := u.attempt(ctx, u.metadata, target, opts)
	if !meta.OK() {
		u.logger.Warnf("backfillMetadata - %s: %s", target, meta.Error)
		return
	}
	m := meta.Data
	if m.Thumbnail != "" {
		info.Thumbnail = m.Thumbnail
	}
	if title := strings.TrimSpace(m.Title); title != "" && !strings.EqualFold(title, unknownTitle) {
		info.Title = m.Title
	}
	if m.Author != "" {
		info.Author = m.Author
	}
	if m.Duration > 0 {
		info.Duration = m.Duration
		info.DurationText = m.DurationText
		if info.DurationText == "" {
			info.DurationText = utils.FormatDuration(m.Duration)
		}
	}
}

func (u *resolveUC) enrich(ctx context.Context, target string, res models.ResolveResult) models.ResolveResult {
	info := res.Data
	if info.OriginalURL == "" {
		info.OriginalURL = target
	}

	if info.Platform == models.PlatformYouTube && len(info.Subtitles) == 0 && u.captions != nil {
		videoID := platform.ExtractVideoID(target, models.PlatformYouTube)
		if videoID == "" {
			videoID = info.ID
		}
		subs, err := u.captions.Captions(ctx, videoID)
		if err != nil {
			u.logger.Warnf("enrich - Captions error for %s: %v", videoID, err)
		} else if len(subs) > 0 {
			info.Subtitles = subs
		}
	}

	if info.ExpiresIn == 0 {
		info.ExpiresIn = resolvers.ExpiresIn(info.Formats)
	}

	if u.prober != nil {
		u.prober.Probe(ctx, info.Formats)
	}
	formats.Prepare(info)
	return res
}
