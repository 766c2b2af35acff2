package resolvers

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/amankumarsingh77/media-resolver/internal/formats"
	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/platform"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

// youtubeClient is the subset of *youtube.Client the resolver needs.
type youtubeClient interface {
	GetVideoContext(ctx context.Context, id string) (*youtube.Video, error)
	GetStreamURLContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, error)
}

type YouTube struct {
	base
	client    youtubeClient
	cobaltURL string
}

func NewYouTube(doer httputil.Doer, client youtubeClient, cobaltURL string, log logger.Logger) *YouTube {
	return &YouTube{base: newBase(doer, log), client: client, cobaltURL: cobaltURL}
}

func (y *YouTube) Name() string { return "youtube" }

func (y *YouTube) Resolve(ctx context.Context, rawURL string, _ models.ResolveOptions) models.ResolveResult {
	videoID := platform.ExtractVideoID(rawURL, models.PlatformYouTube)
	if videoID == "" {
		return models.Failed("could not extract a video id from the URL")
	}

	info, err := y.fromLibrary(ctx, videoID)
	if err == nil {
		return models.Succeeded(info)
	}
	y.logger.Warnf("YouTube.Resolve - library error for %s: %v", videoID, err)

	info, err = y.fromCobalt(ctx, videoID)
	if err == nil {
		return models.Succeeded(info)
	}
	return y.fail("YouTube.Resolve", "could not fetch video information, please try again later", err)
}

func (y *YouTube) fromLibrary(ctx context.Context, videoID string) (*models.VideoInfo, error) {
	video, err := y.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, err
	}

	var list []models.VideoFormat
	var expires int64
	for i := range video.Formats {
		yf := &video.Formats[i]
		streamURL := yf.URL
		if streamURL == "" {
			streamURL, err = y.client.GetStreamURLContext(ctx, video, yf)
			if err != nil {
				y.logger.Debugf("fromLibrary - stream url for itag %d: %v", yf.ItagNo, err)
				continue
			}
		}
		if e := expireParam(streamURL); e > expires {
			expires = e
		}
		if f, ok := youtubeFormat(yf, streamURL); ok {
			list = append(list, f)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no playable formats for %s", videoID)
	}
	sortYouTubeFormats(list)

	duration := int(video.Duration / time.Second)
	info := &models.VideoInfo{
		ID:           videoID,
		Platform:     models.PlatformYouTube,
		Title:        firstNonEmpty(video.Title, "Untitled"),
		Description:  video.Description,
		Thumbnail:    largestThumbnail(video.Thumbnails, videoID),
		Author:       video.Author,
		Duration:     duration,
		DurationText: durationText(duration),
		Formats:      list,
		OriginalURL:  "https://www.youtube.com/watch?v=" + videoID,
	}
	if expires > 0 {
		if left := expires - time.Now().Unix(); left > 0 {
			info.ExpiresIn = int(left)
		}
	}
	return info, nil
}

func youtubeFormat(yf *youtube.Format, streamURL string) (models.VideoFormat, bool) {
	mediaType, params, _ := mime.ParseMediaType(yf.MimeType)
	container := "mp4"
	if i := strings.Index(mediaType, "/"); i >= 0 && i+1 < len(mediaType) {
		container = mediaType[i+1:]
	}
	id := strconv.Itoa(yf.ItagNo)

	switch {
	case strings.HasPrefix(mediaType, "video/"):
		quality := yf.QualityLabel
		if quality == "" && yf.Height > 0 {
			quality = fmt.Sprintf("%dp", yf.Height)
		}
		return format(models.VideoFormat{
			ID:        id,
			Quality:   quality,
			Container: container,
			URL:       streamURL,
			HasVideo:  true,
			HasAudio:  yf.AudioChannels > 0,
			Size:      yf.ContentLength,
			Bitrate:   yf.Bitrate,
			Codec:     codecFromParams(params["codecs"]),
			FPS:       yf.FPS,
		}), true
	case strings.HasPrefix(mediaType, "audio/"):
		kbps := (yf.Bitrate + 500) / 1000
		return format(models.VideoFormat{
			ID:        id,
			Quality:   fmt.Sprintf("%dkbps", kbps),
			Container: container,
			URL:       streamURL,
			HasAudio:  true,
			Size:      yf.ContentLength,
			Bitrate:   yf.Bitrate,
		}), true
	}
	return models.VideoFormat{}, false
}

func codecFromParams(codecs string) string {
	c := strings.ToLower(codecs)
	switch {
	case strings.Contains(c, "avc") || strings.Contains(c, "h264"):
		return "h264"
	case strings.Contains(c, "vp9") || strings.Contains(c, "vp09"):
		return "vp9"
	case strings.Contains(c, "av01"):
		return "av1"
	}
	return "other"
}

var codecPriority = map[string]int{"av1": 0, "vp9": 1, "h264": 2}

// sortYouTubeFormats puts higher resolutions first and the smaller codecs first within one resolution.
func sortYouTubeFormats(list []models.VideoFormat) {
	priority := func(c string) int {
		if p, ok := codecPriority[c]; ok {
			return p
		}
		return 3
	}
	sort.SliceStable(list, func(i, j int) bool {
		qi, qj := formats.QualityToNumber(list[i].Quality), formats.QualityToNumber(list[j].Quality)
		if list[i].HasVideo != list[j].HasVideo {
			return list[i].HasVideo
		}
		if qi != qj {
			return qi > qj
		}
		return priority(list[i].Codec) < priority(list[j].Codec)
	})
}

func largestThumbnail(thumbs youtube.Thumbnails, videoID string) string {
	best := ""
	bestArea := -1
	for _, t := range thumbs {
		if area := int(t.Width) * int(t.Height); area > bestArea {
			best, bestArea = t.URL, area
		}
	}
	if best == "" {
		return "https://i.ytimg.com/vi/" + videoID + "/maxresdefault.jpg"
	}
	return best
}

// ExpiresIn returns the seconds left before the latest signed format URL expires,
// or 0 when no format carries an expire parameter.
func ExpiresIn(list []models.VideoFormat) int {
	var latest int64
	for _, f := range list {
		if e := expireParam(f.URL); e > latest {
			latest = e
		}
	}
	if left := latest - time.Now().Unix(); latest > 0 && left > 0 {
		return int(left)
	}
	return 0
}

// expireParam reads the unix expiry googlevideo URLs carry.
func expireParam(streamURL string) int64 {
	u, err := url.Parse(streamURL)
	if err != nil {
		return 0
	}
	n, _ := strconv.ParseInt(u.Query().Get("expire"), 10, 64)
	return n
}

func (y *YouTube) fromCobalt(ctx context.Context, videoID string) (*models.VideoInfo, error) {
	watchURL := "https://www.youtube.com/watch?v=" + videoID
	resp, err := y.cobalt(ctx, y.cobaltURL, cobaltRequest{URL: watchURL, VCodec: "h264", VQuality: "1080", AFormat: "mp3"})
	if err != nil {
		return nil, err
	}

	var list []models.VideoFormat
	if resp.hasDirectURL() {
		list = append(list, avFormat("cobalt-"+videoID, "best", "mp4", resp.URL))
	}
	if resp.Status == "picker" {
		for i, item := range resp.Picker {
			if item.URL == "" {
				continue
			}
			list = append(list, avFormat(fmt.Sprintf("cobalt-picker-%d", i), item.Quality, "mp4", item.URL))
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("cobalt returned no media for %s", videoID)
	}

	return &models.VideoInfo{
		ID:          videoID,
		Platform:    models.PlatformYouTube,
		Title:       firstNonEmpty(stripExtension(resp.Filename), "YouTube video"),
		Thumbnail:   "https://i.ytimg.com/vi/" + videoID + "/maxresdefault.jpg",
		Formats:     list,
		OriginalURL: watchURL,
	}, nil
}
