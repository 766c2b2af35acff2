package models

import "time"

type VideoFormat struct {
	ID          string `json:"id"`
	Quality     string `json:"quality"`
	Container   string `json:"format"`
	HasVideo    bool   `json:"hasVideo"`
	HasAudio    bool   `json:"hasAudio"`
	URL         string `json:"url"`
	Size        int64  `json:"size,omitempty"`
	SizeText    string `json:"sizeText,omitempty"`
	Bitrate     int    `json:"bitrate,omitempty"`
	Codec       string `json:"codec,omitempty"`
	FPS         int    `json:"fps,omitempty"`
	NoWatermark bool   `json:"noWatermark,omitempty"`
}

// Valid reports whether the format carries at least one media stream.
func (f VideoFormat) Valid() bool {
	return f.HasVideo || f.HasAudio
}

func (f VideoFormat) IsMerged() bool {
	return f.HasVideo && f.HasAudio
}

type Subtitle struct {
	Lang            string `json:"lang"`
	Label           string `json:"label"`
	URL             string `json:"url"`
	Format          string `json:"format"`
	IsAutoGenerated bool   `json:"isAutoGenerated"`
}

type VideoInfo struct {
	ID           string        `json:"id"`
	Platform     Platform      `json:"platform"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Thumbnail    string        `json:"thumbnail"`
	Author       string        `json:"author,omitempty"`
	AuthorAvatar string        `json:"authorAvatar,omitempty"`
	Duration     int           `json:"duration"`
	DurationText string        `json:"durationText,omitempty"`
	Formats      []VideoFormat `json:"formats"`
	Subtitles    []Subtitle    `json:"subtitles,omitempty"`
	Images       []string      `json:"images,omitempty"`
	OriginalURL  string        `json:"originalUrl"`
	ParsedAt     int64         `json:"parsedAt"`
	ExpiresIn    int           `json:"expiresIn,omitempty"`
}

// CanonicalID identifies the same content across resolutions.
func (v *VideoInfo) CanonicalID() string {
	return string(v.Platform) + ":" + v.ID
}

func (v *VideoInfo) Touch() {
	v.ParsedAt = time.Now().UnixMilli()
}

type ResolveOptions struct {
	BilibiliSessdata string `json:"bilibiliSessdata,omitempty"`
}

// ResolveResult is either a success carrying Data or a failure carrying Error.
type ResolveResult struct {
	Success bool       `json:"success"`
	Data    *VideoInfo `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
}

func Succeeded(info *VideoInfo) ResolveResult {
	if info.ParsedAt == 0 {
		info.Touch()
	}
	return ResolveResult{Success: true, Data: info}
}

func Failed(reason string) ResolveResult {
	return ResolveResult{Success: false, Error: reason}
}

func (r ResolveResult) OK() bool {
	return r.Success && r.Data != nil
}

type ResolveRequest struct {
	URL              string `json:"url" validate:"required"`
	BilibiliSessdata string `json:"bilibiliSessdata,omitempty"`
}

func (r *ResolveRequest) Options() ResolveOptions {
	return ResolveOptions{BilibiliSessdata: r.BilibiliSessdata}
}
