package httputil

import "strings"

var refererRules = []struct {
	hosts   []string
	referer string
}{
	{hosts: []string{"bilivideo", "hdslb", "bilibili"}, referer: "https://www.bilibili.com/"},
	{hosts: []string{"phncdn", "pornhub"}, referer: "https://www.pornhub.com/"},
	{hosts: []string{"xhscdn", "xiaohongshu"}, referer: "https://www.xiaohongshu.com/"},
}

// RefererFor returns the Referer a CDN expects for hotlinked media, or "".
func RefererFor(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for _, rule := range refererRules {
		for _, h := range rule.hosts {
			if strings.Contains(lower, h) {
				return rule.referer
			}
		}
	}
	return ""
}
