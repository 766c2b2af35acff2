package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/amankumarsingh77/media-resolver/internal/config"
	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
	"github.com/amankumarsingh77/media-resolver/pkg/httputil"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 4 << 10

// Service is the remote transcoding service as seen by the resolver chain,
// the download orchestrator and the health endpoint.
type Service interface {
	Parse(ctx context.Context, rawURL string) (*models.VideoInfo, error)
	Submit(ctx context.Context, req *SubmitRequest) (string, error)
	Status(ctx context.Context, taskID string) (*TaskState, error)
	Fetch(ctx context.Context, taskID string) (*http.Response, error)
	Health(ctx context.Context) error
}

type SubmitRequest struct {
	VideoURL     string                `json:"videoUrl"`
	AudioURL     string                `json:"audioUrl,omitempty"`
	FormatID     string                `json:"formatId,omitempty"`
	Action       models.DownloadAction `json:"action"`
	Trim         *models.TrimRange     `json:"trim,omitempty"`
	AudioFormat  string                `json:"audioFormat,omitempty"`
	AudioBitrate int                   `json:"audioBitrate,omitempty"`
	Referer      string                `json:"referer,omitempty"`
}

// NewSubmitRequest copies the job fields the service understands.
func NewSubmitRequest(job *models.DownloadJob) *SubmitRequest {
	return &SubmitRequest{
		VideoURL:     job.VideoURL,
		AudioURL:     job.AudioURL,
		FormatID:     job.FormatID,
		Action:       job.EffectiveAction(),
		Trim:         job.Trim,
		AudioFormat:  job.AudioFormat,
		AudioBitrate: job.AudioBitrate,
		Referer:      job.Referer,
	}
}

type TaskState struct {
	Status   models.TaskStatus `json:"status"`
	Error    string            `json:"error,omitempty"`
	Progress float64           `json:"progress,omitempty"`
}

type submitResponse struct {
	TaskID string `json:"taskId"`
	Error  string `json:"error,omitempty"`
}

type parseResponse struct {
	Success bool              `json:"success"`
	Data    *models.VideoInfo `json:"data"`
	Error   string            `json:"error"`
}

type Client struct {
	baseURL string
	http    httputil.Doer
	// submit creates tasks and never retries, a repeated POST could start a second task.
	submit httputil.Doer
	// stream carries file downloads; it has no overall timeout and relies on the request context.
	stream httputil.Doer
	logger logger.Logger
}

func NewClient(cfg *config.Config, log logger.Logger) *Client {
	httpClient := &http.Client{Timeout: cfg.Transcoder.Timeout}
	retry := httputil.NewRetryClient(httpClient, httputil.RetryConfig{MaxRetries: cfg.Transcoder.MaxRetries})
	c := New(cfg.Transcoder.BaseURL, retry, log)
	c.submit = httpClient
	c.stream = &http.Client{}
	return c
}

func New(baseURL string, doer httputil.Doer, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		submit:  doer,
		stream:  doer,
		logger:  log,
	}
}

func (c *Client) Parse(ctx context.Context, rawURL string) (*models.VideoInfo, error) {
	var out parseResponse
	if err := c.postJSON(ctx, c.http, "/parse", map[string]string{"url": rawURL}, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.Data == nil {
		msg := out.Error
		if msg == "" {
			msg = "remote parse returned no data"
		}
		return nil, httperrors.NewUpstreamFailure(0, msg)
	}
	return out.Data, nil
}

// Submit creates a remote task and returns its id.
func (c *Client) Submit(ctx context.Context, req *SubmitRequest) (string, error) {
	if req.Action == "" {
		req.Action = models.ActionDownload
	}
	var out submitResponse
	if err := c.postJSON(ctx, c.submit, "/download", req, &out); err != nil {
		return "", err
	}
	if out.TaskID == "" {
		msg := out.Error
		if msg == "" {
			msg = "remote service returned no task id"
		}
		return "", httperrors.NewUpstreamFailure(0, msg)
	}
	return out.TaskID, nil
}

func (c *Client) Status(ctx context.Context, taskID string) (*TaskState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.taskURL(taskID, ""), nil)
	if err != nil {
		return nil, errors.Wrap(err, "transcoder.Status.NewRequest")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "transcoder.Status.Do")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var state TaskState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, errors.Wrap(err, "transcoder.Status.Decode")
	}
	return &state, nil
}

// Fetch opens the produced file. The caller owns the response body.
func (c *Client) Fetch(ctx context.Context, taskID string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.taskURL(taskID, "/file"), nil)
	if err != nil {
		return nil, errors.Wrap(err, "transcoder.Fetch.NewRequest")
	}
	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "transcoder.Fetch.Do")
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return errors.Wrap(err, "transcoder.Health.NewRequest")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "transcoder.Health.Do")
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) taskURL(taskID, suffix string) string {
	return fmt.Sprintf("%s/task/%s%s", c.baseURL, url.PathEscape(taskID), suffix)
}

func (c *Client) postJSON(ctx context.Context, doer httputil.Doer, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "transcoder.postJSON.Marshal")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "transcoder.postJSON.NewRequest")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := doer.Do(req)
	if err != nil {
		return errors.Wrapf(err, "transcoder.postJSON.Do %s", path)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		c.logger.Errorf("postJSON - %s error: %v", path, err)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "transcoder.postJSON.Decode %s", path)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return httperrors.NewUpstreamFailure(resp.StatusCode, msg)
}
