package http

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/media-resolver/internal/download"
	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

// HeaderDownloadID carries the id a client passes to the cancel endpoint. Clients may
// pick the id themselves so they can cancel before any response header arrives.
const HeaderDownloadID = "X-Download-ID"

type downloadHandler struct {
	downloadUC download.UseCase
	logger     logger.Logger
}

func NewDownloadHandler(downloadUC download.UseCase, log logger.Logger) download.Handler {
	return &downloadHandler{
		downloadUC: downloadUC,
		logger:     log,
	}
}

func (h *downloadHandler) Download() echo.HandlerFunc {
	return func(c echo.Context) error {
		job := &models.DownloadJob{}
		if err := c.Bind(job); err != nil {
			return h.renderError(c, httperrors.NewInvalidInput("invalid request payload"))
		}

		downloadID, err := requestDownloadID(c)
		if err != nil {
			return h.renderError(c, err)
		}
		c.Response().Header().Set(HeaderDownloadID, downloadID)

		// Remote jobs can poll for the whole poll timeout and then stream up to the
		// size limit, which may outlast server.writeTimeout.
		if err = http.NewResponseController(c.Response().Writer).SetWriteDeadline(time.Time{}); err != nil {
			h.logger.Debugf("Download - %s keeps the server write deadline: %v", downloadID, err)
		}

		result, err := h.downloadUC.Execute(c.Request().Context(), downloadID, job, h.progressLogger(downloadID))
		if err != nil {
			return h.renderError(c, err)
		}
		if result.IsRedirect() {
			return c.JSON(http.StatusOK, result)
		}
		defer result.Body.Close()

		header := c.Response().Header()
		header.Set(echo.HeaderContentType, result.ContentType)
		header.Set(echo.HeaderContentDisposition, utils.ContentDisposition(result.Filename))
		if result.ContentLength > 0 {
			header.Set(echo.HeaderContentLength, strconv.FormatInt(result.ContentLength, 10))
		}
		c.Response().WriteHeader(http.StatusOK)

		written, err := io.Copy(c.Response(), result.Body)
		if err != nil {
			if httperrors.Is(err, httperrors.Cancelled) || c.Request().Context().Err() != nil {
				h.logger.Infof("Download - %s cancelled after %s", downloadID, utils.FormatFileSize(written))
				return nil
			}
			h.logger.Errorf("Download - %s stream error after %s: %v", downloadID, utils.FormatFileSize(written), err)
		}
		return nil
	}
}

func (h *downloadHandler) Cancel() echo.HandlerFunc {
	return func(c echo.Context) error {
		downloadID := c.Param("id")
		if downloadID == "" {
			return h.renderError(c, httperrors.NewInvalidInput("missing download id"))
		}
		return c.JSON(http.StatusOK, map[string]bool{"cancelled": h.downloadUC.Cancel(downloadID)})
	}
}

func requestDownloadID(c echo.Context) (string, error) {
	id := c.Request().Header.Get(HeaderDownloadID)
	if id == "" {
		return uuid.NewString(), nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", httperrors.NewInvalidInput("X-Download-ID must be a UUID")
	}
	return parsed.String(), nil
}

// renderError writes the error payload; cancelled downloads get a bare status.
func (h *downloadHandler) renderError(c echo.Context, err error) error {
	if httperrors.Is(err, httperrors.Cancelled) {
		return c.NoContent(httperrors.StatusCode(err))
	}
	status, body := httperrors.ErrorResponse(err)
	h.logger.Warnf("Download - request %s failed with %d: %v", utils.GetRequestID(c), status, err)
	return c.JSON(status, body)
}

// progressLogger logs every quarter of a download with a known size.
func (h *downloadHandler) progressLogger(downloadID string) models.ProgressFunc {
	next := int64(25)
	return func(written, total int64) {
		if total <= 0 {
			return
		}
		if pct := written * 100 / total; pct >= next {
			h.logger.Debugf("Download - %s %d%% (%s/%s)", downloadID, pct,
				utils.FormatFileSize(written), utils.FormatFileSize(total))
			next = pct/25*25 + 25
		}
	}
}
