package resolvers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

const maxPageBody = 8 << 20

var (
	m3u8Link      = regexp.MustCompile(`(?i)https?://[^"'\s<>]+\.m3u8[^"'\s<>]*`)
	mp4Link       = regexp.MustCompile(`(?i)https?://[^"'\s<>]+\.mp4[^"'\s<>]*`)
	lazyImage     = regexp.MustCompile(`(?i)data-(?:src|original|xkrkllgl)=["']([^"']+\.(?:jpg|jpeg|png|webp))["']`)
	trailingQuote = regexp.MustCompile(`[",'\\]+$`)
	titleSuffix   = regexp.MustCompile(`\s*(?:\s-\s|\s\|\s).*$`)
)

// pageScan collects everything the scraper reads from the DOM in one walk.
type pageScan struct {
	title    string
	ogTitle  string
	ogImage  string
	twImage  string
	ogVideo  string
	mediaSrc []string
	images   []string
	jsonLD   []string
}

// Generic scrapes arbitrary pages for video links.
type Generic struct {
	base
}

func NewGeneric(doer httputil.Doer, log logger.Logger) *Generic {
	return &Generic{base: newBase(doer, log)}
}

func (g *Generic) Name() string { return "generic" }

func (g *Generic) Resolve(ctx context.Context, rawURL string, _ models.ResolveOptions) models.ResolveResult {
	req, err := g.newRequest(ctx, http.MethodGet, rawURL, nil, nil)
	if err != nil {
		return g.fail("Generic.Resolve", "invalid page URL", err)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return g.fail("Generic.Resolve", "could not reach the page", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Failed(fmt.Sprintf("could not access the page (%d)", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBody))
	if err != nil {
		return g.fail("Generic.Resolve", "could not read the page", err)
	}
	page := string(body)

	if isCloudflareBlock(page) {
		return models.Failed("the site is behind Cloudflare protection and cannot be fetched by the server, use the browser extension to capture the video link")
	}

	scan := scanPage(page)
	pageURL, _ := url.Parse(rawURL)
	list := collectMedia(page, scan, pageURL)
	if len(list) == 0 {
		return models.Failed("no video links found on the page")
	}

	title := scan.title
	if title != "" {
		title = strings.TrimSpace(titleSuffix.ReplaceAllString(title, ""))
	}
	return models.Succeeded(&models.VideoInfo{
		ID:          "generic-" + uuid.NewString(),
		Platform:    models.PlatformOther,
		Title:       firstNonEmpty(title, scan.ogTitle, "unknown title"),
		Thumbnail:   pickThumbnail(page, scan, pageURL),
		Formats:     list,
		OriginalURL: rawURL,
	})
}

func isCloudflareBlock(page string) bool {
	return strings.Contains(page, "Cloudflare") &&
		(strings.Contains(page, "been blocked") || strings.Contains(page, "Attention Required"))
}

func scanPage(page string) *pageScan {
	scan := &pageScan{}
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return scan
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if scan.title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					scan.title = strings.TrimSpace(n.FirstChild.Data)
				}
			case atom.Meta:
				key := strings.ToLower(firstNonEmpty(attr(n, "property"), attr(n, "name")))
				content := attr(n, "content")
				switch key {
				case "og:title":
					scan.ogTitle = content
				case "og:image":
					if scan.ogImage == "" {
						scan.ogImage = content
					}
				case "twitter:image":
					if scan.twImage == "" {
						scan.twImage = content
					}
				case "og:video", "og:video:url", "og:video:secure_url":
					if scan.ogVideo == "" {
						scan.ogVideo = content
					}
				}
			case atom.Video, atom.Source:
				if src := attr(n, "src"); src != "" {
					scan.mediaSrc = append(scan.mediaSrc, src)
				}
			case atom.Img:
				if src := attr(n, "src"); src != "" {
					scan.images = append(scan.images, src)
				}
			case atom.Script:
				if strings.EqualFold(attr(n, "type"), "application/ld+json") && n.FirstChild != nil {
					scan.jsonLD = append(scan.jsonLD, n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return scan
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func absolute(pageURL *url.URL, ref string) string {
	if pageURL == nil {
		return ref
	}
	u, err := pageURL.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return u.String()
}

func collectMedia(page string, scan *pageScan, pageURL *url.URL) []models.VideoFormat {
	var list []models.VideoFormat
	seen := make(map[string]struct{})
	add := func(raw string) {
		raw = trailingQuote.ReplaceAllString(raw, "")
		if raw == "" {
			return
		}
		if _, ok := seen[raw]; ok {
			return
		}
		seen[raw] = struct{}{}
		if strings.Contains(strings.ToLower(raw), ".m3u8") {
			list = append(list, avFormat(fmt.Sprintf("m3u8-%d", len(list)), "HLS", "m3u8", raw))
			return
		}
		list = append(list, avFormat(fmt.Sprintf("mp4-%d", len(list)), "MP4", "mp4", raw))
	}

	unescaped := strings.ReplaceAll(page, `\/`, "/")
	for _, m := range m3u8Link.FindAllString(unescaped, -1) {
		add(m)
	}
	for _, m := range mp4Link.FindAllString(unescaped, -1) {
		add(m)
	}

	for _, src := range scan.mediaSrc {
		if abs := absolute(pageURL, src); strings.HasPrefix(abs, "http") {
			add(abs)
		}
	}
	if scan.ogVideo != "" {
		add(absolute(pageURL, scan.ogVideo))
	}
	for _, ld := range scan.jsonLD {
		if content := jsonLDField(ld, "contentUrl"); content != "" {
			add(absolute(pageURL, content))
		}
	}
	return list
}

func pickThumbnail(page string, scan *pageScan, pageURL *url.URL) string {
	if scan.ogImage != "" {
		return absolute(pageURL, scan.ogImage)
	}
	if scan.twImage != "" {
		return absolute(pageURL, scan.twImage)
	}
	for _, ld := range scan.jsonLD {
		if thumb := jsonLDField(ld, "thumbnailUrl"); thumb != "" {
			return absolute(pageURL, thumb)
		}
	}
	for _, img := range scan.images {
		lower := strings.ToLower(img)
		if strings.Contains(lower, "logo") || strings.Contains(lower, "icon") ||
			strings.Contains(lower, "avatar") || strings.Contains(lower, "loading") ||
			strings.HasPrefix(lower, "data:") || strings.HasSuffix(lower, ".svg") {
			continue
		}
		if strings.Contains(lower, "upload") || strings.Contains(lower, "pic") || strings.Contains(lower, "image") {
			return absolute(pageURL, img)
		}
	}
	if m := lazyImage.FindStringSubmatch(page); m != nil {
		return absolute(pageURL, m[1])
	}
	return ""
}

// jsonLDField reads a string field from a JSON-LD object, an array of objects or an @graph.
func jsonLDField(doc, field string) string {
	var raw interface{}
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return ""
	}
	return findField(raw, field)
}

func findField(v interface{}, field string) string {
	switch t := v.(type) {
	case map[string]interface{}:
		switch val := t[field].(type) {
		case string:
			return val
		case []interface{}:
			if len(val) > 0 {
				if s, ok := val[0].(string); ok {
					return s
				}
			}
		}
		if graph, ok := t["@graph"]; ok {
			return findField(graph, field)
		}
	case []interface{}:
		for _, item := range t {
			if s := findField(item, field); s != "" {
				return s
			}
		}
	}
	return ""
}
