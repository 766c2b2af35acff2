package http

import (
	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/media-resolver/internal/download"
)

func MapDownloadRoutes(downloadGroup *echo.Group, h download.Handler) {
	downloadGroup.POST("", h.Download())
	downloadGroup.POST("/:id/cancel", h.Cancel())
}
