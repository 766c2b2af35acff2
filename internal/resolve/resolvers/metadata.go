package resolvers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/platform"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

const maxMetadataBody = 4 << 20

var metadataEndpoints = map[models.Platform]string{
	models.PlatformXiaohongshu: "rednote",
	models.PlatformDouyin:      "douyin",
	models.PlatformTikTok:      "ttdl",
	models.PlatformInstagram:   "igdl",
	models.PlatformTwitter:     "twitter",
	models.PlatformYouTube:     "youtube",
}

// MetadataEndpoint maps a platform to the aggregator route; unlisted platforms use "aio".
func MetadataEndpoint(p models.Platform) string {
	if ep, ok := metadataEndpoints[p]; ok {
		return ep
	}
	return "aio"
}

type metadataLink struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

type metadataNote struct {
	NoteID    string          `json:"noteId"`
	VideoID   string          `json:"videoId"`
	Title     string          `json:"title"`
	Nickname  string          `json:"nickname"`
	Desc      string          `json:"desc"`
	Cover     string          `json:"cover"`
	Duration  json.RawMessage `json:"duration"`
	Images    []string        `json:"images"`
	Downloads []metadataLink  `json:"downloads"`
	Links     []metadataLink  `json:"links"`
	Video     json.RawMessage `json:"video"`
	Author    json.RawMessage `json:"author"`
}

// metadataEnvelope covers every response shape the aggregator produces.
// The shape is decided by which fields are present.
type metadataEnvelope struct {
	metadataNote
	Result    *metadataNote `json:"result"`
	MP4       string        `json:"mp4"`
	MP3       string        `json:"mp3"`
	URL       string        `json:"url"`
	Thumbnail string        `json:"thumbnail"`
}

type metadataItem struct {
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

type Metadata struct {
	base
	baseURL string
}

func NewMetadata(doer httputil.Doer, baseURL string, log logger.Logger) *Metadata {
	return &Metadata{base: newBase(doer, log), baseURL: strings.TrimRight(baseURL, "/")}
}

func (m *Metadata) Name() string { return "metadata" }

func (m *Metadata) Resolve(ctx context.Context, rawURL string, _ models.ResolveOptions) models.ResolveResult {
	p := platform.Detect(rawURL)
	body, err := m.fetch(ctx, MetadataEndpoint(p), rawURL)
	if err != nil {
		return m.fail("Metadata.Resolve", "metadata service request failed", err)
	}
	info, err := decodeMetadata(body, rawURL, p)
	if err != nil {
		return m.fail("Metadata.Resolve", err.Error(), nil)
	}
	return models.Succeeded(info)
}

func (m *Metadata) fetch(ctx context.Context, endpoint, pageURL string) ([]byte, error) {
	target := fmt.Sprintf("%s/%s?url=%s", m.baseURL, endpoint, url.QueryEscape(pageURL))
	req, err := m.newRequest(ctx, http.MethodGet, target, nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBody))
	if err != nil {
		return nil, errors.Wrap(err, "read metadata body")
	}
	return body, nil
}

func decodeMetadata(body []byte, pageURL string, p models.Platform) (*models.VideoInfo, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []metadataItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, errors.New("could not decode metadata response")
		}
		return fromItemList(items, pageURL)
	}

	env, err := decodeEnvelope(trimmed)
	if err != nil {
		return nil, err
	}

	switch {
	case env.NoteID != "" || (env.Result != nil && env.Result.NoteID != ""):
		return fromNote(env.note(), pageURL, true)
	case env.Result != nil && (len(env.Result.Video) > 0 || len(env.Result.Downloads) > 0):
		return fromVideoObject(env.note(), pageURL)
	case isJSONArray(env.Video):
		return fromQualityList(env, pageURL)
	case env.MP4 != "" || env.MP3 != "":
		return fromMediaPair(env, pageURL)
	case env.URL != "":
		return fromSingleURL(env, pageURL, p)
	}
	return nil, errors.New("could not interpret metadata response")
}

func decodeEnvelope(body []byte) (*metadataEnvelope, error) {
	var env metadataEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.New("could not decode metadata response")
	}
	return &env, nil
}

func (e *metadataEnvelope) note() *metadataNote {
	if e.Result != nil {
		return e.Result
	}
	return &e.metadataNote
}

// fromNote handles gallery/video notes. allowGallery controls whether an image-only
// note is returned as a gallery or rejected.
func fromNote(n *metadataNote, pageURL string, allowGallery bool) (*models.VideoInfo, error) {
	var list []models.VideoFormat
	for i, dl := range n.Downloads {
		if dl.URL == "" {
			continue
		}
		list = append(list, avFormat(firstNonEmpty(dl.Quality, fmt.Sprintf("xhs-%d", i)), firstNonEmpty(dl.Quality, "original"), "mp4", dl.URL))
	}
	if len(list) == 0 {
		if v := rawString(n.Video); v != "" {
			list = append(list, avFormat("xhs-"+n.NoteID, "original", "mp4", v))
		}
	}

	thumbnail := firstNonEmpty(firstString(n.Images), n.Cover)
	info := &models.VideoInfo{
		ID:          firstNonEmpty(n.NoteID, platform.ExtractVideoID(pageURL, models.PlatformXiaohongshu), uuid.NewString()),
		Platform:    models.PlatformXiaohongshu,
		Title:       firstNonEmpty(n.Title, n.Nickname, "Xiaohongshu note"),
		Description: n.Desc,
		Thumbnail:   thumbnail,
		Author:      n.Nickname,
		OriginalURL: pageURL,
	}

	if len(list) == 0 {
		if len(n.Images) == 0 {
			return nil, errors.New("no video download link found")
		}
		if !allowGallery {
			return nil, fmt.Errorf("this is an image note with %d images, image notes are not supported here", len(n.Images))
		}
		info.Images = n.Images
		info.Formats = []models.VideoFormat{}
		return info, nil
	}

	info.Duration = rawDuration(n.Duration)
	info.DurationText = durationText(info.Duration)
	info.Formats = list
	return info, nil
}

func fromVideoObject(n *metadataNote, pageURL string) (*models.VideoInfo, error) {
	var list []models.VideoFormat
	for _, dl := range n.Downloads {
		if dl.URL != "" {
			list = append(list, avFormat(firstNonEmpty(dl.Quality, "default"), "original", "mp4", dl.URL))
			break
		}
	}
	if len(list) == 0 {
		if v := rawString(n.Video); v != "" {
			list = append(list, avFormat("default", "original", "mp4", v))
		}
	}
	if len(list) == 0 && len(n.Links) > 0 && n.Links[0].URL != "" {
		list = append(list, avFormat("default", "original", "mp4", n.Links[0].URL))
	}
	if len(list) == 0 {
		return nil, errors.New("no video download link found")
	}

	title := n.Title
	if title == "" {
		title = truncateRunes(n.Desc, 100)
	}
	return &models.VideoInfo{
		ID:          firstNonEmpty(n.NoteID, n.VideoID, platform.ExtractVideoID(pageURL, models.PlatformDouyin), uuid.NewString()),
		Platform:    models.PlatformDouyin,
		Title:       firstNonEmpty(title, "Douyin video"),
		Description: n.Desc,
		Thumbnail:   firstNonEmpty(n.Cover, firstString(n.Images)),
		Author:      firstNonEmpty(n.Nickname, rawString(n.Author)),
		Formats:     list,
		OriginalURL: pageURL,
	}, nil
}

func fromQualityList(env *metadataEnvelope, pageURL string) (*models.VideoInfo, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(env.Video, &raw); err != nil {
		return nil, errors.New("could not decode video list")
	}
	var list []models.VideoFormat
	for i, item := range raw {
		var link metadataLink
		if s := rawString(item); s != "" {
			link.URL = s
		} else if err := json.Unmarshal(item, &link); err != nil || link.URL == "" {
			continue
		}
		list = append(list, avFormat(fmt.Sprintf("video-%d", i), firstNonEmpty(link.Quality, fmt.Sprintf("quality %d", i+1)), "mp4", link.URL))
	}
	if len(list) == 0 {
		return nil, errors.New("no video download link found")
	}
	return &models.VideoInfo{
		ID:          firstNonEmpty(platform.ExtractVideoID(pageURL, models.PlatformTikTok), uuid.NewString()),
		Platform:    models.PlatformTikTok,
		Title:       firstNonEmpty(env.Title, "TikTok video"),
		Thumbnail:   env.Thumbnail,
		Formats:     list,
		OriginalURL: pageURL,
	}, nil
}

func fromMediaPair(env *metadataEnvelope, pageURL string) (*models.VideoInfo, error) {
	var list []models.VideoFormat
	if env.MP4 != "" {
		list = append(list, avFormat("mp4", "MP4", "mp4", env.MP4))
	}
	if env.MP3 != "" {
		list = append(list, format(models.VideoFormat{ID: "mp3", Quality: "MP3", Container: "mp3", URL: env.MP3, HasAudio: true}))
	}
	return &models.VideoInfo{
		ID:          firstNonEmpty(platform.ExtractVideoID(pageURL, models.PlatformYouTube), uuid.NewString()),
		Platform:    models.PlatformYouTube,
		Title:       firstNonEmpty(env.Title, "YouTube video"),
		Thumbnail:   env.Thumbnail,
		Author:      rawString(env.Author),
		Formats:     list,
		OriginalURL: pageURL,
	}, nil
}

func fromItemList(items []metadataItem, pageURL string) (*models.VideoInfo, error) {
	var list []models.VideoFormat
	for i, item := range items {
		if item.URL == "" {
			continue
		}
		list = append(list, avFormat(fmt.Sprintf("ig-%d", i), fmt.Sprintf("video %d", i+1), "mp4", item.URL))
	}
	if len(list) == 0 {
		return nil, errors.New("no video download link found")
	}
	return &models.VideoInfo{
		ID:          firstNonEmpty(platform.ExtractVideoID(pageURL, models.PlatformInstagram), uuid.NewString()),
		Platform:    models.PlatformInstagram,
		Title:       "Instagram media",
		Thumbnail:   items[0].Thumbnail,
		Formats:     list,
		OriginalURL: pageURL,
	}, nil
}

func fromSingleURL(env *metadataEnvelope, pageURL string, p models.Platform) (*models.VideoInfo, error) {
	if p == models.PlatformUnknown {
		p = models.PlatformTwitter
	}
	return &models.VideoInfo{
		ID:          firstNonEmpty(platform.ExtractVideoID(pageURL, p), uuid.NewString()),
		Platform:    p,
		Title:       firstNonEmpty(env.Title, "Twitter video"),
		Thumbnail:   env.Thumbnail,
		Formats:     []models.VideoFormat{avFormat("default", "original", "mp4", env.URL)},
		OriginalURL: pageURL,
	}, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// rawString returns the value when raw is a JSON string, "" otherwise.
func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// rawDuration accepts seconds as a number or a "mm:ss" clock string.
func rawDuration(raw json.RawMessage) int {
	if s := rawString(raw); s != "" {
		return utils.ParseClockDuration(s)
	}
	var n float64
	if len(raw) > 0 && json.Unmarshal(raw, &n) == nil && n > 0 {
		return int(n)
	}
	return 0
}

func firstString(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
