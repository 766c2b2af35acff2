package platform

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/amankumarsingh77/media-resolver/internal/models"
)

var (
	youtubePathID    = regexp.MustCompile(`/(?:shorts|embed|live)/([a-zA-Z0-9_-]+)`)
	numericVideoPath = regexp.MustCompile(`/video/(\d+)`)
	tweetStatusPath  = regexp.MustCompile(`/status/(\d+)`)
	instagramPath    = regexp.MustCompile(`/(?:p|reel|reels|tv)/([a-zA-Z0-9_-]+)`)
	douyinPath       = regexp.MustCompile(`/(?:video|note)/(\d+)`)
	xhsExplorePath   = regexp.MustCompile(`/explore/([a-zA-Z0-9]+)`)
	xhsDiscoveryPath = regexp.MustCompile(`/discovery/item/([a-zA-Z0-9]+)`)
	bilibiliBV       = regexp.MustCompile(`BV([a-zA-Z0-9]+)`)
	bilibiliAV       = regexp.MustCompile(`(?i)/av(\d+)`)
)

// ExtractVideoID returns the platform-local content id, or "" when none is present.
func ExtractVideoID(rawURL string, p models.Platform) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	switch p {
	case models.PlatformYouTube:
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		if strings.HasSuffix(strings.ToLower(u.Hostname()), "youtu.be") {
			return strings.Trim(u.Path, "/")
		}
		return firstGroup(youtubePathID, u.Path)
	case models.PlatformTikTok:
		return firstGroup(numericVideoPath, u.Path)
	case models.PlatformTwitter:
		return firstGroup(tweetStatusPath, u.Path)
	case models.PlatformInstagram:
		return firstGroup(instagramPath, u.Path)
	case models.PlatformDouyin:
		if id := firstGroup(douyinPath, u.Path); id != "" {
			return id
		}
		return u.Query().Get("modal_id")
	case models.PlatformXiaohongshu:
		if id := firstGroup(xhsExplorePath, u.Path); id != "" {
			return id
		}
		if id := firstGroup(xhsDiscoveryPath, u.Path); id != "" {
			return id
		}
		if id := u.Query().Get("noteId"); id != "" {
			return id
		}
		return u.Query().Get("note_id")
	case models.PlatformBilibili:
		if m := bilibiliBV.FindStringSubmatch(u.Path); m != nil {
			return "BV" + m[1]
		}
		if m := bilibiliAV.FindStringSubmatch(u.Path); m != nil {
			return "av" + m[1]
		}
		return ""
	default:
		return ""
	}
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
