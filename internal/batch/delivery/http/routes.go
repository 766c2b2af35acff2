package http

import (
	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/media-resolver/internal/batch"
)

func MapBatchRoutes(batchGroup *echo.Group, h batch.Handler) {
	batchGroup.POST("", h.Run())
	batchGroup.GET("/:id", h.Progress())
}
