package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/media-resolver/internal/batch"
	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/platform"
	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

// HeaderBatchID lets a client poll progress while the batch request is still open.
const HeaderBatchID = "X-Batch-ID"

type batchHandler struct {
	batchUC batch.UseCase
	logger  logger.Logger
}

func NewBatchHandler(batchUC batch.UseCase, log logger.Logger) batch.Handler {
	return &batchHandler{
		batchUC: batchUC,
		logger:  log,
	}
}

func (h *batchHandler) Run() echo.HandlerFunc {
	return func(c echo.Context) error {
		req := &models.BatchRequest{}
		if err := utils.ReadRequest(c, req); err != nil {
			return h.renderError(c, httperrors.NewInvalidInput("invalid request payload"))
		}

		urls := collectURLs(req)
		if len(urls) == 0 {
			return h.renderError(c, httperrors.NewInvalidInput("no URLs found in request"))
		}

		batchID := uuid.NewString()
		c.Response().Header().Set(HeaderBatchID, batchID)

		report, err := h.batchUC.Run(c.Request().Context(), batchID, urls, nil)
		if err != nil {
			return h.renderError(c, err)
		}
		return c.JSON(http.StatusOK, report)
	}
}

func (h *batchHandler) Progress() echo.HandlerFunc {
	return func(c echo.Context) error {
		progress, err := h.batchUC.Progress(c.Request().Context(), c.Param("id"))
		if err != nil {
			return h.renderError(c, err)
		}
		if progress == nil {
			return c.JSON(http.StatusNotFound, httperrors.RestError{Success: false, Error: "batch not found"})
		}
		return c.JSON(http.StatusOK, progress)
	}
}

func (h *batchHandler) renderError(c echo.Context, err error) error {
	if httperrors.Is(err, httperrors.Cancelled) {
		return c.NoContent(httperrors.StatusCode(err))
	}
	status, body := httperrors.ErrorResponse(err)
	h.logger.Warnf("Batch - request %s failed with %d: %v", utils.GetRequestID(c), status, err)
	return c.JSON(status, body)
}

// collectURLs merges explicit URLs with links pasted in free text, keeping first-seen order.
func collectURLs(req *models.BatchRequest) []string {
	seen := make(map[string]struct{})
	var urls []string
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		if _, ok := seen[raw]; ok {
			return
		}
		seen[raw] = struct{}{}
		urls = append(urls, raw)
	}
	for _, u := range req.URLs {
		add(u)
	}
	for _, u := range platform.ExtractURLs(req.Text) {
		add(u)
	}
	return urls
}
