package resolvers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/amankumarsingh77/media-resolver/internal/formats"
	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

const (
	ytdlpTimeout    = 2 * time.Minute
	ytdlpMaxFormats = 10
)

var viewKey = regexp.MustCompile(`viewkey=([a-f0-9]+)`)

// commandRunner runs a binary and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

type ytdlpFormat struct {
	FormatID       string  `json:"format_id"`
	URL            string  `json:"url"`
	Ext            string  `json:"ext"`
	Protocol       string  `json:"protocol"`
	Height         int     `json:"height"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	VideoExt       string  `json:"video_ext"`
	AudioExt       string  `json:"audio_ext"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	TBR            float64 `json:"tbr"`
	FPS            float64 `json:"fps"`
}

type ytdlpInfo struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	FullTitle   string        `json:"fulltitle"`
	Description string        `json:"description"`
	Thumbnail   string        `json:"thumbnail"`
	Duration    float64       `json:"duration"`
	Uploader    string        `json:"uploader"`
	Channel     string        `json:"channel"`
	URL         string        `json:"url"`
	Formats     []ytdlpFormat `json:"formats"`
	Thumbnails  []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

// YtDlp resolves adult-video sites by shelling out to the yt-dlp binary.
type YtDlp struct {
	binary string
	run    commandRunner
	logger logger.Logger
}

func NewYtDlp(binary string, log logger.Logger) *YtDlp {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YtDlp{binary: binary, run: execRunner, logger: log}
}

func (y *YtDlp) Name() string { return "yt-dlp" }

func (y *YtDlp) Resolve(ctx context.Context, rawURL string, _ models.ResolveOptions) models.ResolveResult {
	ctx, cancel := context.WithTimeout(ctx, ytdlpTimeout)
	defer cancel()

	out, err := y.run(ctx, y.binary, "--dump-json", "--no-warnings", "--no-check-certificate", rawURL)
	if err != nil {
		y.logger.Errorf("YtDlp.Resolve - run error: %v", err)
		return models.Failed(ytdlpFailureReason(err.Error()))
	}

	var data ytdlpInfo
	if err := json.Unmarshal(out, &data); err != nil {
		y.logger.Errorf("YtDlp.Resolve - decode error: %v", err)
		return models.Failed("could not read the extractor output")
	}

	info := convertYtdlp(&data, rawURL)
	if len(info.Formats) == 0 {
		return models.Failed("no downloadable formats found")
	}
	return models.Succeeded(info)
}

func convertYtdlp(data *ytdlpInfo, rawURL string) *models.VideoInfo {
	duration := int(data.Duration)
	var list []models.VideoFormat
	seen := make(map[string]struct{})

	for _, f := range data.Formats {
		if f.Protocol == "m3u8" || f.Protocol == "m3u8_native" || f.URL == "" {
			continue
		}
		if f.VideoExt == "none" && f.AudioExt == "none" {
			continue
		}
		label := f.FormatID
		if label == "" && f.Height > 0 {
			label = fmt.Sprintf("%dp", f.Height)
		}
		key := label + "-" + f.Ext
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		size := f.Filesize
		if size == 0 {
			size = f.FilesizeApprox
		}
		if size == 0 && f.TBR > 0 && data.Duration > 0 {
			size = int64(math.Round(f.TBR * 1000 * data.Duration / 8))
		}
		codec := ""
		if f.VCodec != "" && f.VCodec != "none" {
			codec = strings.SplitN(f.VCodec, ".", 2)[0]
		}
		quality := label
		if f.Height > 0 {
			quality = fmt.Sprintf("%dp", f.Height)
		}

		list = append(list, format(models.VideoFormat{
			ID:        firstNonEmpty(f.FormatID, fmt.Sprintf("fmt-%d", len(list))),
			Quality:   quality,
			Container: firstNonEmpty(f.Ext, "mp4"),
			URL:       f.URL,
			Size:      size,
			HasAudio:  f.ACodec != "none" && f.AudioExt != "none",
			HasVideo:  f.VCodec != "none" && f.VideoExt != "none",
			Bitrate:   int(math.Round(f.TBR * 1000)),
			Codec:     codec,
			FPS:       int(f.FPS),
		}))
	}
	if len(list) == 0 && data.URL != "" {
		list = append(list, avFormat("default", "best", "mp4", data.URL))
	}

	sort.SliceStable(list, func(i, j int) bool {
		return formats.QualityToNumber(list[i].Quality) > formats.QualityToNumber(list[j].Quality)
	})
	if len(list) > ytdlpMaxFormats {
		list = list[:ytdlpMaxFormats]
	}

	id := data.ID
	if id == "" {
		if m := viewKey.FindStringSubmatch(rawURL); m != nil {
			id = m[1]
		}
	}
	thumbnail := data.Thumbnail
	if thumbnail == "" && len(data.Thumbnails) > 0 {
		thumbnail = data.Thumbnails[0].URL
	}

	return &models.VideoInfo{
		ID:           firstNonEmpty(id, fmt.Sprintf("%d", time.Now().UnixMilli())),
		Platform:     models.PlatformAdultVideo,
		Title:        firstNonEmpty(data.Title, data.FullTitle, "Video"),
		Description:  data.Description,
		Thumbnail:    thumbnail,
		Author:       firstNonEmpty(data.Uploader, data.Channel),
		Duration:     duration,
		DurationText: durationText(duration),
		Formats:      list,
		OriginalURL:  rawURL,
	}
}

func ytdlpFailureReason(msg string) string {
	switch {
	case strings.Contains(msg, "Piracy") || strings.Contains(msg, "no longer supported"):
		return "the extractor no longer supports this site, use the browser extension to capture the video link"
	case strings.Contains(msg, "Unsupported URL"):
		return "this site cannot be resolved on the server, use the browser extension to capture the video link"
	case strings.Contains(msg, "Video unavailable") || strings.Contains(msg, "not available"):
		return "the video is unavailable or was removed"
	case strings.Contains(msg, "Private video"):
		return "this is a private video"
	case strings.Contains(msg, "age"):
		return "age verification is required for this video"
	case strings.Contains(msg, "HTTP Error 403") || strings.Contains(msg, "Cloudflare"):
		return "the site is behind Cloudflare protection, use the browser extension to capture the video link"
	}
	return "resolution failed, use the browser extension to capture the video link"
}
