package resolvers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

// wechatLinkTTL is how long captured Channels links usually stay valid.
const wechatLinkTTL = 24 * 60 * 60

// WeChat accepts direct Channels media links captured by the user; there is no public API.
type WeChat struct {
	base
}

func NewWeChat(doer httputil.Doer, log logger.Logger) *WeChat {
	return &WeChat{base: newBase(doer, log)}
}

func (w *WeChat) Name() string { return "wechat" }

func (w *WeChat) Resolve(ctx context.Context, rawURL string, _ models.ResolveOptions) models.ResolveResult {
	if !strings.Contains(rawURL, "channels.weixin.qq.com") && !strings.Contains(rawURL, "finder.video.qq.com") {
		return models.Failed("Channels videos need the captured media link, paste the real video address instead")
	}

	req, err := w.newRequest(ctx, http.MethodHead, rawURL, nil, nil)
	if err != nil {
		return w.fail("WeChat.Resolve", "invalid link", err)
	}
	resp, err := w.do(req)
	if err != nil {
		return w.fail("WeChat.Resolve", "could not reach the video link", err)
	}
	resp.Body.Close()

	if !strings.Contains(resp.Header.Get("Content-Type"), "video") {
		return models.Failed("this is not a valid video link")
	}
	size, _ := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)

	id := fmt.Sprintf("wechat-%d", time.Now().UnixMilli())
	f := avFormat(id, "original", "mp4", rawURL)
	if size > 0 {
		f.Size = size
		f = format(f)
	}
	return models.Succeeded(&models.VideoInfo{
		ID:          id,
		Platform:    models.PlatformWeChat,
		Title:       "WeChat Channels video",
		Formats:     []models.VideoFormat{f},
		OriginalURL: rawURL,
		ExpiresIn:   wechatLinkTTL,
	})
}
