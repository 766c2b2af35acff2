package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/media-resolver/internal/formats"
	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/platform"
	"github.com/amankumarsingh77/media-resolver/internal/resolve"
	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

type resolvedVideo struct {
	*models.VideoInfo
	Views formats.Normalized `json:"views"`
}

type resolveResponse struct {
	Success bool          `json:"success"`
	Data    resolvedVideo `json:"data"`
}

type resolveHandler struct {
	resolveUC resolve.UseCase
	logger    logger.Logger
}

func NewResolveHandler(resolveUC resolve.UseCase, log logger.Logger) resolve.Handler {
	return &resolveHandler{
		resolveUC: resolveUC,
		logger:    log,
	}
}

func (h *resolveHandler) Resolve() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.ResolveRequest{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, models.Failed("invalid request payload"))
		}
		if err := utils.ValidateStruct(c.Request().Context(), input); err != nil {
			return c.JSON(http.StatusBadRequest, models.Failed("please provide a video url"))
		}

		res := h.resolveUC.Resolve(c.Request().Context(), input.URL, input.Options())
		if !res.OK() {
			h.logger.Warnf("Resolve - request %s failed: %s", utils.GetRequestID(c), res.Error)
			return c.JSON(failureStatus(input.URL), res)
		}

		return c.JSON(http.StatusOK, resolveResponse{
			Success: true,
			Data: resolvedVideo{
				VideoInfo: res.Data,
				Views:     formats.Summarize(res.Data.Formats),
			},
		})
	}
}

// failureStatus maps a failed resolution to a status: malformed input is 400,
// a URL no strategy understood is 422, a known platform that failed upstream is 502.
func failureStatus(rawURL string) int {
	target := platform.Normalize(rawURL)
	if err := platform.Validate(target); err != nil {
		return httperrors.StatusCode(err)
	}
	if platform.Detect(target) == models.PlatformUnknown {
		return httperrors.StatusCode(httperrors.NewUnsupportedPlatform("unsupported platform"))
	}
	return httperrors.StatusCode(httperrors.NewUpstreamFailure(0, "resolution failed"))
}
