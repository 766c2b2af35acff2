package resolvers

import (
	"net/http"

	"github.com/kkdai/youtube/v2"

	"github.com/amankumarsingh77/media-resolver/internal/config"
	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/resolve"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

// Set groups every resolver the chain consults.
type Set struct {
	Dedicated map[models.Platform]resolve.Resolver
	Generic   resolve.Resolver
	Metadata  resolve.Resolver
	Remote    resolve.Resolver
	Captions  resolve.CaptionSource
}

// NewSet wires the resolvers against the configured upstreams.
func NewSet(cfg *config.Config, remote remoteParser, log logger.Logger) *Set {
	httpClient := &http.Client{Timeout: cfg.Resolver.RequestTimeout}
	doer := httputil.NewRetryClient(httpClient, httputil.DefaultRetryConfig())
	rc := cfg.Resolver

	meta := NewMetadata(doer, rc.MetadataBaseURL, log)
	yt := NewYouTube(doer, &youtube.Client{HTTPClient: httpClient}, rc.CobaltURL, log)

	return &Set{
		Dedicated: map[models.Platform]resolve.Resolver{
			models.PlatformYouTube:     yt,
			models.PlatformTikTok:      NewTikTok(doer, rc.TikwmBaseURL, rc.CobaltURL, log),
			models.PlatformTwitter:     NewTwitter(doer, rc.FxTwitterBaseURL, log),
			models.PlatformInstagram:   NewInstagram(doer, rc.CobaltURL, log),
			models.PlatformDouyin:      NewDouyin(doer, rc.DouyinAPIBaseURL, log),
			models.PlatformXiaohongshu: NewXiaohongshu(meta, log),
			models.PlatformWeChat:      NewWeChat(doer, log),
			models.PlatformBilibili:    NewBilibili(doer, rc.BilibiliBaseURL, log),
			models.PlatformAdultVideo:  NewYtDlp(rc.YtDlpPath, log),
		},
		Generic:  NewGeneric(doer, log),
		Metadata: meta,
		Remote:   NewRemote(remote, log),
		Captions: NewCaptions(doer, rc.InnertubeBaseURL, rc.InnertubeKey, log),
	}
}
