package resolvers

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

const captionTimeout = 10 * time.Second

var fmtParam = regexp.MustCompile(`fmt=[^&]+`)

type innertubeText struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t innertubeText) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	if len(t.Runs) > 0 {
		return t.Runs[0].Text
	}
	return ""
}

type captionTrack struct {
	BaseURL      string        `json:"baseUrl"`
	LanguageCode string        `json:"languageCode"`
	Kind         string        `json:"kind"`
	Name         innertubeText `json:"name"`
}

type translationLanguage struct {
	LanguageCode string        `json:"languageCode"`
	LanguageName innertubeText `json:"languageName"`
}

type playerResponse struct {
	Captions struct {
		Renderer struct {
			CaptionTracks        []captionTrack        `json:"captionTracks"`
			TranslationLanguages []translationLanguage `json:"translationLanguages"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// Captions reads subtitle tracks from the innertube player endpoint using the
// ANDROID client identity, which returns caption data the WEB client omits.
type Captions struct {
	base
	baseURL string
	apiKey  string
}

func NewCaptions(doer httputil.Doer, baseURL, apiKey string, log logger.Logger) *Captions {
	return &Captions{base: newBase(doer, log), baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

func (c *Captions) Captions(ctx context.Context, videoID string) ([]models.Subtitle, error) {
	ctx, cancel := context.WithTimeout(ctx, captionTimeout)
	defer cancel()

	body := map[string]interface{}{
		"videoId": videoID,
		"context": map[string]interface{}{
			"client": map[string]interface{}{
				"clientName":        "ANDROID",
				"clientVersion":     "19.09.37",
				"androidSdkVersion": 30,
				"hl":                "en",
				"gl":                "US",
			},
		},
	}
	endpoint := c.baseURL + "/youtubei/v1/player?key=" + url.QueryEscape(c.apiKey)

	var player playerResponse
	if err := c.postJSON(ctx, endpoint, body, nil, &player); err != nil {
		return nil, err
	}
	renderer := player.Captions.Renderer
	return buildSubtitles(renderer.CaptionTracks, renderer.TranslationLanguages), nil
}

func srtURL(baseURL string) string {
	if strings.Contains(baseURL, "fmt=") {
		return fmtParam.ReplaceAllString(baseURL, "fmt=srv1")
	}
	return baseURL + "&fmt=srv1"
}

func buildSubtitles(tracks []captionTrack, translations []translationLanguage) []models.Subtitle {
	var subs []models.Subtitle
	for _, t := range tracks {
		if t.BaseURL == "" {
			continue
		}
		subs = append(subs, models.Subtitle{
			Lang:            firstNonEmpty(t.LanguageCode, "unknown"),
			Label:           firstNonEmpty(t.Name.String(), t.LanguageCode, "unknown"),
			URL:             srtURL(t.BaseURL),
			Format:          "srt",
			IsAutoGenerated: t.Kind == "asr",
		})
	}

	if len(tracks) == 0 || len(translations) == 0 {
		return subs
	}
	source := tracks[0]
	for _, t := range tracks {
		if t.Kind != "asr" {
			source = t
			break
		}
	}
	if source.BaseURL == "" {
		return subs
	}

	existing := make(map[string]struct{}, len(subs))
	for _, s := range subs {
		existing[s.Lang] = struct{}{}
	}
	for _, tl := range translations {
		if tl.LanguageCode == "" {
			continue
		}
		if _, ok := existing[tl.LanguageCode]; ok {
			continue
		}
		existing[tl.LanguageCode] = struct{}{}
		subs = append(subs, models.Subtitle{
			Lang:            tl.LanguageCode,
			Label:           firstNonEmpty(tl.LanguageName.String(), tl.LanguageCode),
			URL:             srtURL(source.BaseURL) + "&tlang=" + tl.LanguageCode,
			Format:          "srt",
			IsAutoGenerated: true,
		})
	}
	return subs
}
