package resolvers

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/platform"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

var resolutionInPath = regexp.MustCompile(`/(\d+)x(\d+)/`)

type fxVideo struct {
	URL          string  `json:"url"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Duration     float64 `json:"duration"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Formats      []struct {
		Container string `json:"container"`
		URL       string `json:"url"`
		Bitrate   int    `json:"bitrate"`
	} `json:"formats"`
	Variants []struct {
		ContentType string `json:"content_type"`
		URL         string `json:"url"`
		Bitrate     int    `json:"bitrate"`
	} `json:"variants"`
}

type fxResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Tweet   *struct {
		Text   string `json:"text"`
		Author struct {
			Name      string `json:"name"`
			AvatarURL string `json:"avatar_url"`
		} `json:"author"`
		Media struct {
			Videos []fxVideo `json:"videos"`
		} `json:"media"`
	} `json:"tweet"`
}

type Twitter struct {
	base
	apiBaseURL string
}

func NewTwitter(doer httputil.Doer, apiBaseURL string, log logger.Logger) *Twitter {
	return &Twitter{base: newBase(doer, log), apiBaseURL: strings.TrimRight(apiBaseURL, "/")}
}

func (t *Twitter) Name() string { return "twitter" }

func (t *Twitter) Resolve(ctx context.Context, rawURL string, _ models.ResolveOptions) models.ResolveResult {
	tweetID := platform.ExtractVideoID(rawURL, models.PlatformTwitter)
	if tweetID == "" {
		return models.Failed("could not extract a tweet id from the URL")
	}

	var resp fxResponse
	if err := t.getJSON(ctx, t.apiBaseURL+"/status/"+tweetID, nil, &resp); err != nil {
		return t.fail("Twitter.Resolve", "could not fetch tweet information", err)
	}
	if resp.Code != 200 || resp.Tweet == nil {
		return t.fail("Twitter.Resolve", "could not fetch tweet information", fmt.Errorf("fxtwitter code %d: %s", resp.Code, resp.Message))
	}
	tweet := resp.Tweet
	videos := tweet.Media.Videos

	duration := 0
	thumbnail := ""
	if len(videos) > 0 {
		duration = int(videos[0].Duration)
		thumbnail = videos[0].ThumbnailURL
	}

	var list []models.VideoFormat
	seen := make(map[string]struct{})
	add := func(rawURL string, bitrate, fallbackHeight int) {
		if _, ok := seen[rawURL]; ok {
			return
		}
		seen[rawURL] = struct{}{}
		height := fallbackHeight
		if m := resolutionInPath.FindStringSubmatch(rawURL); m != nil {
			height, _ = strconv.Atoi(m[2])
		}
		f := avFormat(fmt.Sprintf("twitter-%s-%d", tweetID, len(list)), twitterQuality(height), "mp4", rawURL)
		f.Bitrate = bitrate
		if bitrate > 0 && duration > 0 {
			f.Size = int64(duration) * int64(bitrate) / 8
		}
		list = append(list, format(f))
	}

	for _, v := range videos {
		for _, vf := range v.Formats {
			if vf.URL == "" || (vf.Container != "mp4" && !strings.Contains(vf.URL, ".mp4")) {
				continue
			}
			add(vf.URL, vf.Bitrate, v.Height)
		}
		for _, variant := range v.Variants {
			if variant.ContentType != "video/mp4" || variant.URL == "" {
				continue
			}
			add(variant.URL, variant.Bitrate, 0)
		}
	}
	if len(list) == 0 && len(videos) > 0 && videos[0].URL != "" {
		list = append(list, avFormat("twitter-"+tweetID, "original", "mp4", videos[0].URL))
	}
	if len(list) == 0 {
		return models.Failed("this tweet has no video, it may contain only text or images")
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].Bitrate > list[j].Bitrate })

	return models.Succeeded(&models.VideoInfo{
		ID:           tweetID,
		Platform:     models.PlatformTwitter,
		Title:        firstNonEmpty(truncateRunes(tweet.Text, 100), "Twitter video"),
		Description:  tweet.Text,
		Thumbnail:    thumbnail,
		Author:       tweet.Author.Name,
		AuthorAvatar: tweet.Author.AvatarURL,
		Duration:     duration,
		DurationText: durationText(duration),
		Formats:      list,
		OriginalURL:  rawURL,
	})
}

func twitterQuality(height int) string {
	switch {
	case height >= 1080:
		return "1080p"
	case height >= 720:
		return "720p"
	case height >= 480:
		return "480p"
	case height >= 360:
		return "360p"
	case height > 0:
		return fmt.Sprintf("%dp", height)
	}
	return "unknown"
}
