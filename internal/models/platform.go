package models

type Platform string

const (
	PlatformYouTube     Platform = "youtube"
	PlatformTikTok      Platform = "tiktok"
	PlatformTwitter     Platform = "twitter"
	PlatformInstagram   Platform = "instagram"
	PlatformDouyin      Platform = "douyin"
	PlatformXiaohongshu Platform = "xiaohongshu"
	PlatformWeChat      Platform = "wechat"
	PlatformBilibili    Platform = "bilibili"
	PlatformAdultVideo  Platform = "adult-video"
	PlatformOther       Platform = "other"
	PlatformUnknown     Platform = "unknown"
)

// KnownPlatforms lists every platform that has a domain table entry.
var KnownPlatforms = []Platform{
	PlatformYouTube,
	PlatformTikTok,
	PlatformTwitter,
	PlatformInstagram,
	PlatformDouyin,
	PlatformXiaohongshu,
	PlatformWeChat,
	PlatformBilibili,
	PlatformAdultVideo,
}

func (p Platform) String() string {
	return string(p)
}

func (p Platform) IsKnown() bool {
	return p != PlatformUnknown && p != PlatformOther && p != ""
}

// OrOther maps unknown to other; the chain never reports unknown on success.
func (p Platform) OrOther() Platform {
	if p == PlatformUnknown || p == "" {
		return PlatformOther
	}
	return p
}

// PlatformSet is a lookup table built from configuration lists.
type PlatformSet map[Platform]struct{}

func NewPlatformSet(names []string) PlatformSet {
	set := make(PlatformSet, len(names))
	for _, name := range names {
		set[Platform(name)] = struct{}{}
	}
	return set
}

func (s PlatformSet) Has(p Platform) bool {
	_, ok := s[p]
	return ok
}
