package platform

import (
	"testing"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		url  string
		want models.Platform
	}{
		{"https://www.youtube.com/watch?v=test", models.PlatformYouTube},
		{"https://music.youtube.com/watch?v=abc", models.PlatformYouTube},
		{"https://youtu.be/abc", models.PlatformYouTube},
		{"https://vm.tiktok.com/ZM123/", models.PlatformTikTok},
		{"https://X.com/user/status/1", models.PlatformTwitter},
		{"https://instagr.am/p/xyz", models.PlatformInstagram},
		{"https://v.douyin.com/abc/", models.PlatformDouyin},
		{"https://www.iesdouyin.com/share/video/1", models.PlatformDouyin},
		{"http://xhslink.com/a/b", models.PlatformXiaohongshu},
		{"https://channels.weixin.qq.com/web/pages/feed", models.PlatformWeChat},
		{"https://b23.tv/BV1xx", models.PlatformBilibili},
		{"https://cn.pornhub.com/view_video.php?viewkey=1", models.PlatformAdultVideo},
		{"https://spankbang.party/x", models.PlatformAdultVideo},
		{"https://example.com/video.mp4", models.PlatformUnknown},
		{"https://notyoutube.com/watch", models.PlatformUnknown},
		{"https://weixin.qq.com/", models.PlatformUnknown},
		{"://bad url", models.PlatformUnknown},
		{"", models.PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.url))
		})
	}
}

func TestDetectEveryConfiguredDomain(t *testing.T) {
	for _, p := range models.KnownPlatforms {
		for _, domain := range Domains(p) {
			assert.Equal(t, p, Detect("https://"+domain+"/x"), domain)
			assert.Equal(t, p, Detect("https://sub."+domain+"/x"), "sub."+domain)
		}
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "https://youtu.be/abc", Normalize("  youtu.be/abc \n"))
	assert.Equal(t, "http://example.com", Normalize("http://example.com"))
	assert.Equal(t, "HTTPS://example.com", Normalize("HTTPS://example.com"))
	assert.Equal(t, "", Normalize("   "))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("https://www.bilibili.com/video/BV1xx411c7mD"))

	for _, bad := range []string{"", "ftp://example.com/file", "https://", "http://%zz"} {
		err := Validate(bad)
		assert.Error(t, err, bad)
		assert.True(t, httperrors.Is(err, httperrors.InvalidInput), bad)
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url      string
		platform models.Platform
		want     string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", models.PlatformYouTube, "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", models.PlatformYouTube, "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/abc_DEF-1", models.PlatformYouTube, "abc_DEF-1"},
		{"https://www.tiktok.com/@user/video/7234567890", models.PlatformTikTok, "7234567890"},
		{"https://x.com/user/status/1790000000000000000", models.PlatformTwitter, "1790000000000000000"},
		{"https://www.instagram.com/reel/C1a2B3c/", models.PlatformInstagram, "C1a2B3c"},
		{"https://www.douyin.com/note/7300000000000000000", models.PlatformDouyin, "7300000000000000000"},
		{"https://www.xiaohongshu.com/explore/64f0c0a1000000001e03a6b1", models.PlatformXiaohongshu, "64f0c0a1000000001e03a6b1"},
		{"https://www.xiaohongshu.com/discovery/item/abc123", models.PlatformXiaohongshu, "abc123"},
		{"https://www.bilibili.com/video/BV1xx411c7mD?p=1", models.PlatformBilibili, "BV1xx411c7mD"},
		{"https://www.bilibili.com/video/av170001", models.PlatformBilibili, "av170001"},
		{"https://example.com/x", models.PlatformOther, ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVideoID(tt.url, tt.platform))
		})
	}
}

func TestExtractURLs(t *testing.T) {
	text := `看这个 https://b23.tv/abc，还有 https://www.youtube.com/watch?v=1.
duplicate: https://b23.tv/abc and (https://x.com/u/status/2)`

	assert.Equal(t, []string{
		"https://b23.tv/abc",
		"https://www.youtube.com/watch?v=1",
		"https://x.com/u/status/2",
	}, ExtractURLs(text))

	assert.Empty(t, ExtractURLs("no links here"))
}
