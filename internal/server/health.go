package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/media-resolver/internal/config"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

const healthCheckTimeout = 5 * time.Second

type healthChecker interface {
	Health(ctx context.Context) error
}

type healthResponse struct {
	Status     string  `json:"status"`
	Transcoder string  `json:"transcoder"`
	CPU        float64 `json:"cpu"`
}

func newHealthHandler(transcoderClient healthChecker, cfg *config.Config, log logger.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		log.Infof("Health check RequestID: %s", utils.GetRequestID(c))

		resp := healthResponse{Status: "OK", Transcoder: "ok"}
		canAccept, usage := utils.CheckCPUUsage(cfg.Worker.MaxCPUUsage)
		resp.CPU = usage
		if !canAccept {
			resp.Status = "BUSY"
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
		defer cancel()
		if err := transcoderClient.Health(ctx); err != nil {
			log.Warnf("Health - transcoder unavailable: %v", err)
			resp.Transcoder = "unavailable"
		}
		return c.JSON(http.StatusOK, resp)
	}
}
