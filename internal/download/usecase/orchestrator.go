package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/amankumarsingh77/media-resolver/internal/config"
	"github.com/amankumarsingh77/media-resolver/internal/download"
	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/transcoder"
	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

const (
	defaultMaxFileSize  = int64(2 << 30)
	defaultPollInterval = 3 * time.Second
	defaultPollTimeout  = 30 * time.Minute
	defaultContentType  = "video/mp4"
)

var audioMIME = map[string]string{
	"mp3": "audio/mpeg",
	"wav": "audio/wav",
	"aac": "audio/aac",
	"m4a": "audio/mp4",
}

type downloadUC struct {
	cfg       *config.Config
	service   transcoder.Service
	http      httputil.Doer
	awsRepo   download.AWSRepository
	downloads *cancelRegistry
	logger    logger.Logger
}

// NewDownloadUseCase builds the orchestrator. awsRepo may be nil when handoff storage is disabled.
func NewDownloadUseCase(
	cfg *config.Config,
	service transcoder.Service,
	doer httputil.Doer,
	awsRepo download.AWSRepository,
	log logger.Logger,
) download.UseCase {
	return &downloadUC{
		cfg:       cfg,
		service:   service,
		http:      doer,
		awsRepo:   awsRepo,
		downloads: newCancelRegistry(),
		logger:    log,
	}
}

// ShouldUseRemote reports whether the job needs the transcoding service.
func ShouldUseRemote(job *models.DownloadJob) bool {
	switch job.EffectiveAction() {
	case models.ActionMerge, models.ActionTrim, models.ActionExtractAudio:
		return true
	}
	if job.FormatID != "" {
		return true
	}
	return strings.Contains(job.VideoURL, ".m3u8") || strings.Contains(job.AudioURL, ".m3u8")
}

func (u *downloadUC) Execute(ctx context.Context, downloadID string, job *models.DownloadJob, onProgress models.ProgressFunc) (*models.DownloadResult, error) {
	if job == nil {
		return nil, httperrors.NewInvalidInput("missing download job")
	}
	if err := utils.ValidateStruct(ctx, job); err != nil {
		u.logger.Errorf("Execute - ValidateStruct error: %v", err)
		return nil, httperrors.Wrap(httperrors.InvalidInput, err, "invalid download request")
	}
	if job.EffectiveAction() == models.ActionTrim && job.Trim == nil {
		return nil, httperrors.NewInvalidInput("trim requires a start and end time")
	}

	ctx, cancel := context.WithCancel(ctx)
	if !u.downloads.register(downloadID, cancel) {
		cancel()
		return nil, httperrors.NewInvalidInput("download id is already in use")
	}
	release := func() { u.downloads.release(downloadID) }

	var (
		result *models.DownloadResult
		err    error
	)
	if ShouldUseRemote(job) {
		u.logger.Infof("Execute - %s via remote service, action %s", downloadID, job.EffectiveAction())
		result, err = u.remote(ctx, downloadID, job, onProgress, release)
	} else {
		u.logger.Infof("Execute - %s via direct proxy", downloadID)
		result, err = u.direct(ctx, job, onProgress, release)
	}
	if err != nil || result.Body == nil {
		release()
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (u *downloadUC) Cancel(downloadID string) bool {
	ok := u.downloads.cancel(downloadID)
	if ok {
		u.logger.Infof("Cancel - download %s cancelled", downloadID)
	}
	return ok
}

func (u *downloadUC) direct(ctx context.Context, job *models.DownloadJob, onProgress models.ProgressFunc, release func()) (*models.DownloadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.VideoURL, nil)
	if err != nil {
		return nil, httperrors.Wrap(httperrors.InvalidInput, err, "invalid video url")
	}
	req.Header.Set("User-Agent", httputil.BrowserUserAgent)
	referer := job.Referer
	if referer == "" {
		referer = httputil.RefererFor(job.VideoURL)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return nil, u.transportError(ctx, "direct", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		u.logger.Errorf("direct - upstream status %d for %s", resp.StatusCode, job.VideoURL)
		return nil, httperrors.NewUpstreamFailure(resp.StatusCode, resp.Status)
	}
	if limit := u.maxFileSize(); resp.ContentLength > limit {
		resp.Body.Close()
		return nil, httperrors.NewPayloadTooLarge(fmt.Sprintf("file is %s, limit is %s",
			utils.FormatFileSize(resp.ContentLength), utils.FormatFileSize(limit)))
	}

	contentType, filename := u.naming(job, "")
	return &models.DownloadResult{
		Body:          newProgressReader(ctx, resp.Body, resp.ContentLength, onProgress, release),
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		Filename:      filename,
	}, nil
}

func (u *downloadUC) remote(ctx context.Context, downloadID string, job *models.DownloadJob, onProgress models.ProgressFunc, release func()) (*models.DownloadResult, error) {
	taskID, err := u.service.Submit(ctx, transcoder.NewSubmitRequest(job))
	if err != nil {
		return nil, u.transportError(ctx, "remote Submit", err)
	}
	u.logger.Infof("remote - download %s submitted as task %s", downloadID, taskID)

	if err = u.waitForTask(ctx, taskID); err != nil {
		return nil, err
	}

	resp, err := u.service.Fetch(ctx, taskID)
	if err != nil {
		return nil, u.transportError(ctx, "remote Fetch", err)
	}

	contentType, filename := u.naming(job, resp.Header.Get("Content-Type"))
	if u.shouldHandoff(resp.ContentLength) {
		defer resp.Body.Close()
		return u.handoff(ctx, downloadID, resp, contentType, filename)
	}

	return &models.DownloadResult{
		Body:          newProgressReader(ctx, resp.Body, resp.ContentLength, onProgress, release),
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		Filename:      filename,
	}, nil
}

// waitForTask polls the task until it is done, failed or the poll deadline passes.
// No status request is sent after the deadline.
func (u *downloadUC) waitForTask(ctx context.Context, taskID string) error {
	interval := u.cfg.Download.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := u.cfg.Download.PollTimeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return httperrors.NewCancelled(ctx.Err())
			}
			u.logger.Warnf("waitForTask - task %s timed out after %s", taskID, timeout)
			return httperrors.NewRemoteJobTimeout(fmt.Sprintf("task %s did not finish within %s", taskID, timeout))
		case <-ticker.C:
			if pollCtx.Err() != nil {
				continue
			}
			state, err := u.service.Status(pollCtx, taskID)
			if err != nil {
				u.logger.Warnf("waitForTask - Status error for %s: %v", taskID, err)
				continue
			}
			switch state.Status {
			case models.TaskDone:
				return nil
			case models.TaskError:
				return httperrors.NewRemoteJobError(firstNonEmpty(state.Error, "remote processing failed"))
			}
			u.logger.Debugf("waitForTask - task %s %s %.0f%%", taskID, state.Status, state.Progress)
		}
	}
}

func (u *downloadUC) shouldHandoff(contentLength int64) bool {
	s3cfg := u.cfg.S3
	return u.awsRepo != nil && s3cfg.Enabled && s3cfg.HandoffBucket != "" &&
		s3cfg.HandoffThreshold > 0 && contentLength >= s3cfg.HandoffThreshold
}

// handoff uploads the finished file and returns a presigned link instead of the bytes.
func (u *downloadUC) handoff(ctx context.Context, downloadID string, resp *http.Response, contentType, filename string) (*models.DownloadResult, error) {
	key := fmt.Sprintf("handoff/%s/%s", downloadID, filename)
	err := u.awsRepo.PutObject(ctx, &models.HandoffObject{
		Bucket:      u.cfg.S3.HandoffBucket,
		Key:         key,
		ContentType: contentType,
		Size:        resp.ContentLength,
		Body:        resp.Body,
	})
	if err != nil {
		u.logger.Errorf("handoff - PutObject error: %v", err)
		return nil, u.transportError(ctx, "handoff PutObject", err)
	}

	link, err := u.awsRepo.PresignGetObject(ctx, u.cfg.S3.HandoffBucket, key, filename, u.cfg.S3.PresignTTL)
	if err != nil {
		u.logger.Errorf("handoff - PresignGetObject error: %v", err)
		return nil, httperrors.Wrap(httperrors.Internal, err, "could not create download link")
	}
	u.logger.Infof("handoff - download %s stored as %s", downloadID, key)
	return &models.DownloadResult{RedirectURL: link, Filename: filename}, nil
}

// naming picks the response content type and the sanitized attachment name.
func (u *downloadUC) naming(job *models.DownloadJob, upstreamType string) (string, string) {
	filename := utils.SanitizeFilename(job.Filename)
	if job.EffectiveAction() == models.ActionExtractAudio {
		audioFormat := job.AudioFormat
		if audioFormat == "" {
			audioFormat = "mp3"
		}
		contentType, ok := audioMIME[audioFormat]
		if !ok {
			contentType = "audio/" + audioFormat
		}
		return contentType, utils.ReplaceExtension(filename, audioFormat)
	}
	if upstreamType == "" || !ShouldUseRemote(job) {
		return defaultContentType, filename
	}
	return upstreamType, filename
}

func (u *downloadUC) maxFileSize() int64 {
	if u.cfg.Download.MaxFileSize > 0 {
		return u.cfg.Download.MaxFileSize
	}
	return defaultMaxFileSize
}

// transportError keeps typed errors, maps cancellation and wraps the rest as upstream failures.
func (u *downloadUC) transportError(ctx context.Context, step string, err error) error {
	if ctx.Err() == context.Canceled || errors.Is(err, context.Canceled) {
		return httperrors.NewCancelled(err)
	}
	var typed *httperrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	u.logger.Errorf("%s error: %v", step, err)
	return httperrors.Wrap(httperrors.UpstreamFailure, err, step+" failed")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
