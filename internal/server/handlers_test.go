package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amankumarsingh77/media-resolver/internal/config"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

type stubHealth struct{ err error }

func (s stubHealth) Health(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	cfg := &config.Config{}
	for name, tc := range map[string]struct {
		checker    healthChecker
		transcoder string
	}{
		"up":   {stubHealth{}, "ok"},
		"down": {stubHealth{errors.New("connection refused")}, "unavailable"},
	} {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), rec)

			require.NoError(t, newHealthHandler(tc.checker, cfg, logger.NewNop())(c))
			require.Equal(t, http.StatusOK, rec.Code)

			var body healthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "OK", body.Status)
			assert.Equal(t, tc.transcoder, body.Transcoder)
		})
	}
}

func proxyRequest(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/image-proxy?url="+url.QueryEscape(target), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, newImageProxyHandler(http.DefaultClient, logger.NewNop())(c))
	return rec
}

func TestImageProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/i0.hdslb.com/cover.jpg":
			if r.Header.Get("Referer") != "https://www.bilibili.com/" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg-bytes"))
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer upstream.Close()

	rec := proxyRequest(t, upstream.URL+"/i0.hdslb.com/cover.jpg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg-bytes", rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))

	assert.Equal(t, http.StatusUnsupportedMediaType, proxyRequest(t, upstream.URL+"/page").Code)

	rec = proxyRequest(t, upstream.URL+"/missing.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "HTTP 404")

	assert.Equal(t, http.StatusBadRequest, proxyRequest(t, "").Code)
	assert.Equal(t, http.StatusBadRequest, proxyRequest(t, "ftp://example.com/a.png").Code)
}
