package platform

import (
	"net/url"
	"strings"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
)

type domainRule struct {
	platform models.Platform
	domains  []string
}

// domainTable is matched in order; a host matches a domain exactly or as a subdomain.
var domainTable = []domainRule{
	{models.PlatformYouTube, []string{"youtube.com", "youtu.be", "www.youtube.com", "m.youtube.com"}},
	{models.PlatformTikTok, []string{"tiktok.com", "vm.tiktok.com", "vt.tiktok.com", "www.tiktok.com"}},
	{models.PlatformTwitter, []string{"twitter.com", "x.com", "www.twitter.com", "www.x.com"}},
	{models.PlatformInstagram, []string{"instagram.com", "www.instagram.com", "instagr.am"}},
	{models.PlatformDouyin, []string{"douyin.com", "v.douyin.com", "www.douyin.com", "iesdouyin.com"}},
	{models.PlatformXiaohongshu, []string{"xiaohongshu.com", "www.xiaohongshu.com", "xhslink.com"}},
	{models.PlatformWeChat, []string{"channels.weixin.qq.com", "finder.video.qq.com"}},
	{models.PlatformBilibili, []string{"bilibili.com", "www.bilibili.com", "m.bilibili.com", "b23.tv", "bilibili.tv"}},
	{models.PlatformAdultVideo, []string{
		"pornhub.com", "pornhub.org", "91porn.com", "91porna.com", "xvideos.com",
		"xhamster.com", "xhamster.one", "xnxx.com", "redtube.com", "youporn.com",
		"spankbang.com", "spankbang.party",
	}},
}

// Detect maps a URL to its platform by host. It never performs network calls and
// returns unknown for malformed input or unmatched hosts.
func Detect(rawURL string) models.Platform {
	u, err := url.Parse(rawURL)
	if err != nil {
		return models.PlatformUnknown
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return models.PlatformUnknown
	}

	for _, rule := range domainTable {
		for _, domain := range rule.domains {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return rule.platform
			}
		}
	}
	return models.PlatformUnknown
}

// Domains returns the configured domain set of a platform.
func Domains(p models.Platform) []string {
	for _, rule := range domainTable {
		if rule.platform == p {
			return append([]string(nil), rule.domains...)
		}
	}
	return nil
}

// Normalize trims the input and prepends https:// when no http(s) scheme is present.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}
	return raw
}

func Validate(rawURL string) error {
	if rawURL == "" {
		return httperrors.NewInvalidInput("missing video url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return httperrors.Wrap(httperrors.InvalidInput, err, "malformed video url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return httperrors.NewInvalidInput("unsupported url scheme")
	}
	if u.Hostname() == "" {
		return httperrors.NewInvalidInput("url has no host")
	}
	return nil
}
