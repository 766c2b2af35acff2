package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

const extensionCookie = "extension-token"

type ClientCtxKey struct{}

// ExtensionJWTMiddleware admits requests carrying a token minted for the browser add-on.
// The token comes from the Authorization bearer header or the extension-token cookie.
func (mw *MiddlewareManager) ExtensionJWTMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				mw.logger.Warnf("ExtensionJWTMiddleware - RequestID: %s, error: %v", utils.GetRequestID(c), err)
				return unauthorized(c)
			}

			claims, err := utils.ValidateToken(tokenString, mw.cfg.Server.JwtSecretKey)
			if err != nil {
				mw.logger.Warnf("ExtensionJWTMiddleware - RequestID: %s, validateToken error: %v", utils.GetRequestID(c), err)
				return unauthorized(c)
			}

			c.Set("client", claims.ClientID)
			ctx := context.WithValue(c.Request().Context(), ClientCtxKey{}, claims.ClientID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", errors.New("malformed authorization header")
		}
		return parts[1], nil
	}
	cookie, err := c.Cookie(extensionCookie)
	if err != nil || cookie.Value == "" {
		return "", errors.New("missing token")
	}
	return cookie.Value, nil
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, httperrors.RestError{Success: false, Error: "Unauthorized"})
}

// ClientFromCtx returns the add-on client id set by ExtensionJWTMiddleware.
func ClientFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ClientCtxKey{}).(string)
	return id, ok
}
