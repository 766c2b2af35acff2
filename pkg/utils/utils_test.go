package utils

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{123456, "120.56 KB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{3 * 1024 * 1024 * 1024 * 1024, "3072 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFileSize(tt.bytes), "bytes=%d", tt.bytes)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", FormatDuration(0))
	assert.Equal(t, "1:05", FormatDuration(65))
	assert.Equal(t, "1:01:01", FormatDuration(3661))
}

func TestParseClockDuration(t *testing.T) {
	assert.Equal(t, 22, ParseClockDuration("00:22"))
	assert.Equal(t, 3723, ParseClockDuration("1:02:03"))
	assert.Equal(t, 0, ParseClockDuration("abc"))
	assert.Equal(t, 0, ParseClockDuration("12"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "spaces and symbols", in: "my video!.mp4", want: "my_video_.mp4"},
		{name: "cjk kept", in: "测试视频 01.mp4", want: "测试视频_01.mp4"},
		{name: "trailing separators", in: "clip._", want: "clip"},
		{name: "path separators", in: "../etc/passwd", want: ".._etc_passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilenameDefault(t *testing.T) {
	name := SanitizeFilename("  ")
	assert.True(t, strings.HasPrefix(name, "video_"))
	assert.True(t, strings.HasSuffix(name, ".mp4"))
}

func TestReplaceExtension(t *testing.T) {
	assert.Equal(t, "song.mp3", ReplaceExtension("song.mp4", "mp3"))
	assert.Equal(t, "song.m4a", ReplaceExtension("song", ".m4a"))
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, "attachment; filename*=UTF-8''%E8%A7%86%E9%A2%91.mp4", ContentDisposition("视频.mp4"))
}

func TestExtensionFromURL(t *testing.T) {
	assert.Equal(t, "m3u8", ExtensionFromURL("https://cdn.example.com/live/index.M3U8?token=1"))
	assert.Equal(t, "", ExtensionFromURL("https://cdn.example.com/watch"))
}

type validatedInput struct {
	URL string `validate:"required,url"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(context.Background(), &validatedInput{URL: "https://example.com"}))
	assert.Error(t, ValidateStruct(context.Background(), &validatedInput{URL: "nope"}))
}

func TestExtensionToken(t *testing.T) {
	token, err := GenerateExtensionToken("chrome-1", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "chrome-1", claims.ClientID)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)

	_, err = GenerateExtensionToken("chrome-1", "", time.Hour)
	assert.Error(t, err)
}
