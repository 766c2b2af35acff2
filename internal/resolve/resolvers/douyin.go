package resolvers

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/platform"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

var douyinModID = regexp.MustCompile(`modId=(\d+)`)

type douyinResponse struct {
	URL       string `json:"url"`
	Video     string `json:"video"`
	Title     string `json:"title"`
	Cover     string `json:"cover"`
	Thumbnail string `json:"thumbnail"`
}

type Douyin struct {
	base
	apiBaseURL string
}

func NewDouyin(doer httputil.Doer, apiBaseURL string, log logger.Logger) *Douyin {
	return &Douyin{base: newBase(doer, log), apiBaseURL: strings.TrimRight(apiBaseURL, "/")}
}

func (d *Douyin) Name() string { return "douyin" }

func (d *Douyin) Resolve(ctx context.Context, rawURL string, _ models.ResolveOptions) models.ResolveResult {
	realURL := rawURL
	if strings.Contains(rawURL, "v.douyin.com") || strings.Contains(rawURL, "vm.douyin.com") {
		realURL = d.finalURL(ctx, http.MethodGet, rawURL, MobileUserAgent)
	}

	videoID := platform.ExtractVideoID(realURL, models.PlatformDouyin)
	if videoID == "" {
		if m := douyinModID.FindStringSubmatch(realURL); m != nil {
			videoID = m[1]
		}
	}
	if videoID == "" {
		return models.Failed("could not extract a video id from the URL")
	}

	canonical := "https://www.douyin.com/video/" + videoID
	var resp douyinResponse
	if err := d.getJSON(ctx, d.apiBaseURL+"/api?url="+url.QueryEscape(canonical), map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return d.fail("Douyin.Resolve", "could not fetch video information, login may be required or the video was removed", err)
	}
	media := firstNonEmpty(resp.URL, resp.Video)
	if media == "" {
		return d.fail("Douyin.Resolve", "could not fetch video information, login may be required or the video was removed", errors.New("empty media url"))
	}

	return models.Succeeded(&models.VideoInfo{
		ID:          videoID,
		Platform:    models.PlatformDouyin,
		Title:       firstNonEmpty(resp.Title, "Douyin video"),
		Thumbnail:   firstNonEmpty(resp.Cover, resp.Thumbnail),
		Formats:     []models.VideoFormat{avFormat("douyin-"+videoID, "original", "mp4", media)},
		OriginalURL: canonical,
	})
}
