package usecase

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/resolve"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

const probeTimeout = 3 * time.Second

var mediaContentTypes = []string{
	"video/",
	"audio/",
	"application/octet-stream",
	"application/vnd.apple.mpegurl",
	"binary/octet-stream",
}

type sizeProber struct {
	http    httputil.Doer
	timeout time.Duration
	logger  logger.Logger
}

// NewSizeProber fills missing sizes with a HEAD request, then a one-byte ranged GET.
func NewSizeProber(doer httputil.Doer, log logger.Logger) resolve.SizeProber {
	return &sizeProber{http: doer, timeout: probeTimeout, logger: log}
}

func (p *sizeProber) Probe(ctx context.Context, list []models.VideoFormat) {
	g, ctx := errgroup.WithContext(ctx)
	for i := range list {
		f := &list[i]
		if f.Size > 0 || f.URL == "" || strings.Contains(strings.ToLower(f.URL), ".m3u8") {
			continue
		}
		g.Go(func() error {
			if size := p.probe(ctx, f.URL); size > 0 {
				f.Size = size
				f.SizeText = utils.FormatFileSize(size)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (p *sizeProber) probe(ctx context.Context, rawURL string) int64 {
	if size := p.head(ctx, rawURL); size > 0 {
		return size
	}
	return p.rangedGet(ctx, rawURL)
}

func (p *sizeProber) head(ctx context.Context, rawURL string) int64 {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.send(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		p.logger.Debugf("head - %s: %v", rawURL, err)
		return 0
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !isMediaType(resp.Header.Get("Content-Type")) {
		return 0
	}
	size := resp.ContentLength
	if size <= 0 {
		size, _ = strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	}
	if size <= 0 {
		return 0
	}
	return size
}

func (p *sizeProber) rangedGet(ctx context.Context, rawURL string) int64 {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.send(ctx, http.MethodGet, rawURL, map[string]string{"Range": "bytes=0-0"})
	if err != nil {
		p.logger.Debugf("rangedGet - %s: %v", rawURL, err)
		return 0
	}
	resp.Body.Close()
	return ParseContentRangeTotal(resp.Header.Get("Content-Range"))
}

func (p *sizeProber) send(ctx context.Context, method, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", httputil.BrowserUserAgent)
	if referer := httputil.RefererFor(rawURL); referer != "" {
		req.Header.Set("Referer", referer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return p.http.Do(req)
}

func isMediaType(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, prefix := range mediaContentTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

// ParseContentRangeTotal reads TOTAL from "bytes 0-0/TOTAL"; unknown totals give 0.
func ParseContentRangeTotal(header string) int64 {
	i := strings.LastIndex(header, "/")
	if i < 0 {
		return 0
	}
	total, err := strconv.ParseInt(strings.TrimSpace(header[i+1:]), 10, 64)
	if err != nil || total < 0 {
		return 0
	}
	return total
}
