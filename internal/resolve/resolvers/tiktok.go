package resolvers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/platform"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

type tikwmResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		Title       string `json:"title"`
		Desc        string `json:"desc"`
		Cover       string `json:"cover"`
		OriginCover string `json:"origin_cover"`
		Duration    int    `json:"duration"`
		Play        string `json:"play"`
		WmPlay      string `json:"wmplay"`
		Music       string `json:"music"`
		Author      struct {
			Nickname string `json:"nickname"`
			UniqueID string `json:"unique_id"`
			Avatar   string `json:"avatar"`
		} `json:"author"`
	} `json:"data"`
}

type TikTok struct {
	base
	tikwmBaseURL string
	cobaltURL    string
}

func NewTikTok(doer httputil.Doer, tikwmBaseURL, cobaltURL string, log logger.Logger) *TikTok {
	return &TikTok{base: newBase(doer, log), tikwmBaseURL: strings.TrimRight(tikwmBaseURL, "/"), cobaltURL: cobaltURL}
}

func (t *TikTok) Name() string { return "tiktok" }

func (t *TikTok) Resolve(ctx context.Context, rawURL string, _ models.ResolveOptions) models.ResolveResult {
	realURL := rawURL
	if isTikTokShortLink(rawURL) {
		realURL = t.finalURL(ctx, http.MethodHead, rawURL, "")
	}

	videoID := platform.ExtractVideoID(realURL, models.PlatformTikTok)
	if videoID == "" {
		return models.Failed("could not extract a video id from the URL")
	}

	info, err := t.fromTikwm(ctx, videoID)
	if err == nil {
		return models.Succeeded(info)
	}
	t.logger.Warnf("TikTok.Resolve - tikwm error for %s: %v", videoID, err)

	info, err = t.fromCobalt(ctx, realURL, videoID)
	if err == nil {
		return models.Succeeded(info)
	}
	return t.fail("TikTok.Resolve", "could not fetch video information, please try again later", err)
}

func isTikTokShortLink(rawURL string) bool {
	return strings.Contains(rawURL, "vm.tiktok.com") || strings.Contains(rawURL, "vt.tiktok.com")
}

func (t *TikTok) fromTikwm(ctx context.Context, videoID string) (*models.VideoInfo, error) {
	canonical := "https://www.tiktok.com/video/" + videoID
	endpoint := t.tikwmBaseURL + "/api/?url=" + url.QueryEscape(canonical)

	var resp tikwmResponse
	if err := t.getJSON(ctx, endpoint, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 || resp.Data == nil {
		return nil, fmt.Errorf("tikwm code %d: %s", resp.Code, resp.Msg)
	}
	d := resp.Data

	var list []models.VideoFormat
	if d.Play != "" {
		f := avFormat("tiktok-hd-"+videoID, "HD (no watermark)", "mp4", d.Play)
		f.NoWatermark = true
		list = append(list, f)
	}
	if d.WmPlay != "" {
		list = append(list, avFormat("tiktok-wm-"+videoID, "HD (watermark)", "mp4", d.WmPlay))
	}
	if d.Music != "" {
		list = append(list, format(models.VideoFormat{
			ID:        "tiktok-audio-" + videoID,
			Quality:   "audio",
			Container: "mp3",
			URL:       d.Music,
			HasAudio:  true,
		}))
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("tikwm returned no media for %s", videoID)
	}

	return &models.VideoInfo{
		ID:           videoID,
		Platform:     models.PlatformTikTok,
		Title:        firstNonEmpty(d.Title, "TikTok video"),
		Description:  firstNonEmpty(d.Desc, d.Title),
		Thumbnail:    firstNonEmpty(d.Cover, d.OriginCover),
		Duration:     d.Duration,
		DurationText: durationText(d.Duration),
		Author:       firstNonEmpty(d.Author.Nickname, d.Author.UniqueID),
		AuthorAvatar: d.Author.Avatar,
		Formats:      list,
		OriginalURL:  canonical,
	}, nil
}

func (t *TikTok) fromCobalt(ctx context.Context, pageURL, videoID string) (*models.VideoInfo, error) {
	resp, err := t.cobalt(ctx, t.cobaltURL, cobaltRequest{URL: pageURL, AFormat: "mp3"})
	if err != nil {
		return nil, err
	}
	if !resp.hasDirectURL() {
		return nil, fmt.Errorf("cobalt returned no direct media for %s", videoID)
	}
	f := avFormat("cobalt-tiktok-"+videoID, "best", "mp4", resp.URL)
	f.NoWatermark = true
	return &models.VideoInfo{
		ID:          videoID,
		Platform:    models.PlatformTikTok,
		Title:       firstNonEmpty(stripExtension(resp.Filename), "TikTok video"),
		Formats:     []models.VideoFormat{f},
		OriginalURL: pageURL,
	}, nil
}
