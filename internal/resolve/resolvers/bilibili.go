package resolvers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/platform"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

const bilibiliReferer = "https://www.bilibili.com"

var bilibiliQualities = map[int]string{
	127: "8K",
	126: "Dolby Vision",
	125: "HDR",
	120: "4K",
	116: "1080P60",
	112: "1080P+",
	80:  "1080P",
	74:  "720P60",
	64:  "720P",
	32:  "480P",
	16:  "360P",
	6:   "240P",
}

type biliView struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Bvid     string `json:"bvid"`
		Aid      int64  `json:"aid"`
		Cid      int64  `json:"cid"`
		Title    string `json:"title"`
		Desc     string `json:"desc"`
		Pic      string `json:"pic"`
		Duration int    `json:"duration"`
		Owner    struct {
			Name string `json:"name"`
			Face string `json:"face"`
		} `json:"owner"`
		Pages []struct {
			Cid int64 `json:"cid"`
		} `json:"pages"`
	} `json:"data"`
}

type dashStream struct {
	ID        int    `json:"id"`
	BaseURL   string `json:"baseUrl"`
	Bandwidth int    `json:"bandwidth"`
	Codecs    string `json:"codecs"`
	FrameRate string `json:"frameRate"`
}

type biliPlayURL struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Quality int `json:"quality"`
		Dash    *struct {
			Video []dashStream `json:"video"`
			Audio []dashStream `json:"audio"`
		} `json:"dash"`
		Durl []struct {
			Order int    `json:"order"`
			URL   string `json:"url"`
			Size  int64  `json:"size"`
		} `json:"durl"`
	} `json:"data"`
}

type Bilibili struct {
	base
	apiBaseURL string
}

func NewBilibili(doer httputil.Doer, apiBaseURL string, log logger.Logger) *Bilibili {
	return &Bilibili{base: newBase(doer, log), apiBaseURL: strings.TrimRight(apiBaseURL, "/")}
}

func (b *Bilibili) Name() string { return "bilibili" }

func (b *Bilibili) Resolve(ctx context.Context, rawURL string, opts models.ResolveOptions) models.ResolveResult {
	realURL := rawURL
	if strings.Contains(rawURL, "b23.tv") {
		realURL = b.finalURL(ctx, http.MethodGet, rawURL, "")
	}

	videoID := platform.ExtractVideoID(realURL, models.PlatformBilibili)
	if videoID == "" {
		return models.Failed("could not extract a BV or av id from the URL")
	}

	headers := b.headers(opts.BilibiliSessdata)
	view, err := b.view(ctx, videoID, headers)
	if err != nil {
		return b.fail("Bilibili.Resolve", "could not fetch video information", err)
	}
	d := view.Data

	cid := d.Cid
	if len(d.Pages) > 0 && d.Pages[0].Cid != 0 {
		cid = d.Pages[0].Cid
	}

	list, expires, err := b.playURL(ctx, d.Bvid, cid, d.Duration, headers)
	if err != nil {
		return b.fail("Bilibili.Resolve", "could not fetch the play list", err)
	}
	if len(list) == 0 {
		return models.Failed("no downloadable streams, the video may require login")
	}

	pic := d.Pic
	if strings.HasPrefix(pic, "//") {
		pic = "https:" + pic
	}
	info := &models.VideoInfo{
		ID:           d.Bvid,
		Platform:     models.PlatformBilibili,
		Title:        firstNonEmpty(d.Title, "Bilibili video"),
		Description:  d.Desc,
		Thumbnail:    pic,
		Author:       d.Owner.Name,
		AuthorAvatar: d.Owner.Face,
		Duration:     d.Duration,
		DurationText: durationText(d.Duration),
		Formats:      list,
		OriginalURL:  "https://www.bilibili.com/video/" + d.Bvid,
	}
	if expires > 0 {
		if left := expires - time.Now().Unix(); left > 0 {
			info.ExpiresIn = int(left)
		}
	}
	return models.Succeeded(info)
}

func (b *Bilibili) headers(sessdata string) map[string]string {
	h := map[string]string{
		"Referer": bilibiliReferer,
		"Origin":  bilibiliReferer,
	}
	if sessdata != "" {
		h["Cookie"] = "SESSDATA=" + sessdata
	}
	return h
}

func (b *Bilibili) view(ctx context.Context, videoID string, headers map[string]string) (*biliView, error) {
	param := "bvid=" + url.QueryEscape(videoID)
	if strings.HasPrefix(videoID, "av") {
		param = "aid=" + strings.TrimPrefix(videoID, "av")
	}
	var view biliView
	if err := b.getJSON(ctx, b.apiBaseURL+"/x/web-interface/view?"+param, headers, &view); err != nil {
		return nil, err
	}
	if view.Code != 0 {
		return nil, errors.Errorf("view code %d: %s", view.Code, view.Message)
	}
	return &view, nil
}

func (b *Bilibili) playURL(ctx context.Context, bvid string, cid int64, duration int, headers map[string]string) ([]models.VideoFormat, int64, error) {
	q := url.Values{}
	q.Set("bvid", bvid)
	q.Set("cid", strconv.FormatInt(cid, 10))
	q.Set("qn", "127")
	q.Set("fnver", "0")
	q.Set("fnval", "4048")
	q.Set("fourk", "1")

	var play biliPlayURL
	if err := b.getJSON(ctx, b.apiBaseURL+"/x/player/playurl?"+q.Encode(), headers, &play); err != nil {
		return nil, 0, err
	}
	if play.Code != 0 {
		return nil, 0, errors.Errorf("playurl code %d: %s", play.Code, play.Message)
	}

	var list []models.VideoFormat
	var expires int64
	track := func(rawURL string) {
		if e := deadlineParam(rawURL); e > expires {
			expires = e
		}
	}
	streamSize := func(bandwidth int) int64 {
		return int64(math.Round(float64(bandwidth) * float64(duration) / 8))
	}

	if dash := play.Data.Dash; dash != nil {
		best := make(map[int]dashStream)
		for _, s := range dash.Video {
			if cur, ok := best[s.ID]; !ok || s.Bandwidth > cur.Bandwidth {
				best[s.ID] = s
			}
		}
		ids := make([]int, 0, len(best))
		for id := range best {
			ids = append(ids, id)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ids)))

		for _, id := range ids {
			s := best[id]
			codec := parseBiliCodec(s.Codecs)
			fps := 0
			if v, err := strconv.ParseFloat(s.FrameRate, 64); err == nil {
				fps = int(math.Round(v))
			}
			track(s.BaseURL)
			list = append(list, format(models.VideoFormat{
				ID:        fmt.Sprintf("bili-video-%d-%s", id, codec),
				Quality:   biliQualityLabel(id),
				Container: "mp4",
				URL:       s.BaseURL,
				HasVideo:  true,
				Bitrate:   s.Bandwidth,
				Codec:     codec,
				FPS:       fps,
				Size:      streamSize(s.Bandwidth),
			}))
		}

		for _, s := range dash.Audio {
			kbps := int(math.Round(float64(s.Bandwidth) / 1000))
			track(s.BaseURL)
			list = append(list, format(models.VideoFormat{
				ID:        fmt.Sprintf("bili-audio-%d-%d", s.ID, kbps),
				Quality:   fmt.Sprintf("%dkbps", kbps),
				Container: "m4a",
				URL:       s.BaseURL,
				HasAudio:  true,
				Bitrate:   s.Bandwidth,
				Codec:     parseBiliCodec(s.Codecs),
				Size:      streamSize(s.Bandwidth),
			}))
		}
	}

	if len(list) == 0 {
		for _, item := range play.Data.Durl {
			track(item.URL)
			list = append(list, format(models.VideoFormat{
				ID:        fmt.Sprintf("bili-durl-%d", item.Order),
				Quality:   biliQualityLabel(play.Data.Quality),
				Container: "flv",
				URL:       item.URL,
				Size:      item.Size,
				HasVideo:  true,
				HasAudio:  true,
			}))
		}
	}
	return list, expires, nil
}

func biliQualityLabel(id int) string {
	if label, ok := bilibiliQualities[id]; ok {
		return label
	}
	return strconv.Itoa(id)
}

func parseBiliCodec(codecs string) string {
	c := strings.ToLower(codecs)
	switch {
	case strings.HasPrefix(c, "avc"), strings.HasPrefix(c, "h264"):
		return "h264"
	case strings.HasPrefix(c, "hev"), strings.HasPrefix(c, "h265"), strings.HasPrefix(c, "hevc"):
		return "hevc"
	case strings.HasPrefix(c, "av01"), strings.HasPrefix(c, "av1"):
		return "av1"
	case strings.HasPrefix(c, "mp4a"), strings.HasPrefix(c, "aac"):
		return "aac"
	case strings.HasPrefix(c, "flac"):
		return "flac"
	}
	if head := strings.SplitN(c, ".", 2)[0]; head != "" {
		return head
	}
	return "unknown"
}

func deadlineParam(rawURL string) int64 {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	n, _ := strconv.ParseInt(u.Query().Get("deadline"), 10, 64)
	return n
}
