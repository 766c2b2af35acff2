package platform

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]，。；！？）】》、]+")

const trailingPunctuation = ".,;:!?)]}>'\"，。；：！？）】》、"

// ExtractURLs returns every http(s) URL found in free text in first-seen order,
// without duplicates and without trailing punctuation.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, trailingPunctuation)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
	}
	return urls
}
