package models

import "io"

type DownloadAction string

const (
	ActionDownload     DownloadAction = "download"
	ActionMerge        DownloadAction = "merge"
	ActionTrim         DownloadAction = "trim"
	ActionExtractAudio DownloadAction = "extract-audio"
)

type TrimRange struct {
	Start float64 `json:"start" validate:"gte=0"`
	End   float64 `json:"end" validate:"gtfield=Start"`
}

type DownloadJob struct {
	VideoURL     string         `json:"videoUrl" validate:"required,url"`
	AudioURL     string         `json:"audioUrl,omitempty" validate:"omitempty,url"`
	FormatID     string         `json:"formatId,omitempty"`
	Action       DownloadAction `json:"action,omitempty" validate:"omitempty,oneof=download merge trim extract-audio"`
	Trim         *TrimRange     `json:"trim,omitempty" validate:"omitempty"`
	AudioFormat  string         `json:"audioFormat,omitempty" validate:"omitempty,oneof=mp3 m4a aac wav"`
	AudioBitrate int            `json:"audioBitrate,omitempty" validate:"omitempty,gt=0"`
	Filename     string         `json:"filename,omitempty"`
	Referer      string         `json:"referer,omitempty" validate:"omitempty,url"`
}

func (j *DownloadJob) EffectiveAction() DownloadAction {
	if j.Action == "" {
		return ActionDownload
	}
	return j.Action
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskDone       TaskStatus = "done"
	TaskError      TaskStatus = "error"
)

// DownloadResult is either a byte stream (Body set) or a redirect (RedirectURL set).
type DownloadResult struct {
	Body          io.ReadCloser `json:"-"`
	ContentType   string        `json:"-"`
	ContentLength int64         `json:"-"`
	RedirectURL   string        `json:"redirectUrl,omitempty"`
	Filename      string        `json:"filename"`
}

func (r *DownloadResult) IsRedirect() bool {
	return r.RedirectURL != ""
}

// ProgressFunc receives bytes written so far and the expected total (0 when unknown).
type ProgressFunc func(written, total int64)

// HandoffObject is a finished file uploaded to object storage so the client can fetch it directly.
type HandoffObject struct {
	Bucket      string
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}
