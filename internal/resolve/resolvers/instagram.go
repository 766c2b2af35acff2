package resolvers

import (
	"context"
	"fmt"
	"time"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/platform"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

type Instagram struct {
	base
	cobaltURL string
}

func NewInstagram(doer httputil.Doer, cobaltURL string, log logger.Logger) *Instagram {
	return &Instagram{base: newBase(doer, log), cobaltURL: cobaltURL}
}

func (i *Instagram) Name() string { return "instagram" }

func (i *Instagram) Resolve(ctx context.Context, rawURL string, _ models.ResolveOptions) models.ResolveResult {
	postID := platform.ExtractVideoID(rawURL, models.PlatformInstagram)

	resp, err := i.cobalt(ctx, i.cobaltURL, cobaltRequest{URL: rawURL, AFormat: "mp3"})
	if err != nil {
		return i.fail("Instagram.Resolve", "could not resolve this Instagram post", err)
	}

	var list []models.VideoFormat
	if resp.URL != "" {
		list = append(list, avFormat("ig-0", "original", "mp4", resp.URL))
	} else {
		for n, item := range resp.Picker {
			if item.Type != "video" || item.URL == "" {
				continue
			}
			list = append(list, avFormat(fmt.Sprintf("ig-%d", n), fmt.Sprintf("video %d", n+1), "mp4", item.URL))
		}
	}
	if len(list) == 0 {
		return models.Failed("no video found, the post may contain only images")
	}

	thumbnail := ""
	if postID == "" {
		postID = fmt.Sprintf("ig-%d", time.Now().UnixMilli())
	} else {
		thumbnail = "https://www.instagram.com/p/" + postID + "/media/?size=l"
	}
	return models.Succeeded(&models.VideoInfo{
		ID:          postID,
		Platform:    models.PlatformInstagram,
		Title:       firstNonEmpty(stripExtension(resp.Filename), "Instagram video"),
		Thumbnail:   thumbnail,
		Formats:     list,
		OriginalURL: rawURL,
	})
}
