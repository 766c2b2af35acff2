package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

// RequestLoggerMiddleware logs one line per request once the handler returns.
func (mw *MiddlewareManager) RequestLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		res := c.Response()
		mw.logger.Infof("RequestID: %s, Method: %s, URI: %s, Status: %v, Size: %s, Time: %s, IP: %s",
			utils.GetRequestID(c),
			req.Method,
			req.URL.Path,
			res.Status,
			utils.FormatFileSize(res.Size),
			time.Since(start),
			utils.GetIPAddress(c),
		)
		return nil
	}
}
