package resolvers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

// MobileUserAgent unlocks the redirect targets of Chinese short links.
const MobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 MicroMessenger/8.0.0"

// base carries the HTTP plumbing shared by every resolver.
type base struct {
	http   httputil.Doer
	logger logger.Logger
}

func newBase(doer httputil.Doer, log logger.Logger) base {
	return base{http: doer, logger: log}
}

func (b *base) newRequest(ctx context.Context, method, rawURL string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errors.Wrap(err, "NewRequest")
	}
	req.Header.Set("User-Agent", httputil.BrowserUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// do sends the request and rejects non-2xx responses. The caller closes the body.
func (b *base) do(req *http.Request) (*http.Response, error) {
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Host)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, errors.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}

func (b *base) getJSON(ctx context.Context, rawURL string, headers map[string]string, out interface{}) error {
	req, err := b.newRequest(ctx, http.MethodGet, rawURL, nil, headers)
	if err != nil {
		return err
	}
	return b.decode(req, out)
}

func (b *base) postJSON(ctx context.Context, rawURL string, in interface{}, headers map[string]string, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}
	req, err := b.newRequest(ctx, http.MethodPost, rawURL, bytes.NewReader(payload), headers)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return b.decode(req, out)
}

func (b *base) decode(req *http.Request, out interface{}) error {
	resp, err := b.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "json.Decode")
	}
	return nil
}

// finalURL follows redirects and returns where the URL ends up. Any failure
// returns the input unchanged.
func (b *base) finalURL(ctx context.Context, method, rawURL, userAgent string) string {
	headers := map[string]string{}
	if userAgent != "" {
		headers["User-Agent"] = userAgent
	}
	req, err := b.newRequest(ctx, method, rawURL, nil, headers)
	if err != nil {
		return rawURL
	}
	resp, err := b.http.Do(req)
	if err != nil {
		b.logger.Warnf("finalURL - %s error: %v", rawURL, err)
		return rawURL
	}
	resp.Body.Close()
	if resp.Request == nil || resp.Request.URL == nil {
		return rawURL
	}
	return resp.Request.URL.String()
}

// fail logs and builds a failure result.
func (b *base) fail(name, reason string, err error) models.ResolveResult {
	if err != nil {
		b.logger.Errorf("%s - %s: %v", name, reason, err)
	}
	return models.Failed(reason)
}

// format fills the defaults every resolver relies on.
func format(f models.VideoFormat) models.VideoFormat {
	if f.Quality == "" {
		f.Quality = "unknown"
	}
	if f.Container == "" {
		f.Container = "mp4"
	}
	if f.Size > 0 && f.SizeText == "" {
		f.SizeText = utils.FormatFileSize(f.Size)
	}
	return f
}

func avFormat(id, quality, container, rawURL string) models.VideoFormat {
	return format(models.VideoFormat{
		ID:        id,
		Quality:   quality,
		Container: container,
		URL:       rawURL,
		HasVideo:  true,
		HasAudio:  true,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func stripExtension(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

func durationText(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	return utils.FormatDuration(seconds)
}
