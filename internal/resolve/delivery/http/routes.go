package http

import (
	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/media-resolver/internal/resolve"
)

func MapResolveRoutes(resolveGroup *echo.Group, h resolve.Handler) {
	resolveGroup.POST("", h.Resolve())
}
