package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

const (
	imageProxyTimeout = 15 * time.Second
	imageMaxBytes     = 20 << 20
	imageCacheControl = "public, max-age=86400"
	defaultImageType  = "image/jpeg"
)

// newImageProxyHandler fetches thumbnails from CDNs that refuse hot-linking.
func newImageProxyHandler(doer httputil.Doer, log logger.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		target := c.QueryParam("url")
		u, err := url.Parse(target)
		if target == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return c.JSON(http.StatusBadRequest, httperrors.RestError{Error: "missing or invalid url parameter", Kind: httperrors.InvalidInput})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), imageProxyTimeout)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return c.JSON(http.StatusBadRequest, httperrors.RestError{Error: "invalid url parameter", Kind: httperrors.InvalidInput})
		}
		req.Header.Set("User-Agent", httputil.BrowserUserAgent)
		if referer := httputil.RefererFor(target); referer != "" {
			req.Header.Set("Referer", referer)
		}

		resp, err := doer.Do(req)
		if err != nil {
			log.Errorf("ImageProxy - RequestID: %s, fetch error: %v", utils.GetRequestID(c), err)
			return c.JSON(http.StatusBadGateway, httperrors.RestError{Error: "image proxy request failed", Kind: httperrors.UpstreamFailure})
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return c.JSON(resp.StatusCode, httperrors.RestError{Error: fmt.Sprintf("HTTP %d", resp.StatusCode), Kind: httperrors.UpstreamFailure})
		}

		contentType := resp.Header.Get(echo.HeaderContentType)
		if contentType == "" {
			contentType = defaultImageType
		}
		if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
			return c.JSON(http.StatusUnsupportedMediaType, httperrors.RestError{Error: "upstream did not return an image", Kind: httperrors.InvalidInput})
		}

		c.Response().Header().Set("Cache-Control", imageCacheControl)
		return c.Stream(http.StatusOK, contentType, io.LimitReader(resp.Body, imageMaxBytes))
	}
}
