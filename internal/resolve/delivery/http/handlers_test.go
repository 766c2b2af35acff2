package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

type mockResolveUC struct {
	mock.Mock
}

func (m *mockResolveUC) Resolve(ctx context.Context, rawURL string, opts models.ResolveOptions) models.ResolveResult {
	args := m.Called(rawURL, opts)
	return args.Get(0).(models.ResolveResult)
}

func postResolve(t *testing.T, uc *mockResolveUC, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resolve", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewResolveHandler(uc, logger.NewNop())
	require.NoError(t, h.Resolve()(c))
	return rec
}

func TestResolveHandler_Success(t *testing.T) {
	uc := &mockResolveUC{}
	info := &models.VideoInfo{
		ID:       "abc",
		Platform: models.PlatformYouTube,
		Title:    "song",
		Formats: []models.VideoFormat{
			{ID: "137", Quality: "1080p", HasVideo: true, URL: "https://v/137", Codec: "h264"},
			{ID: "140", Quality: "129kbps", HasAudio: true, URL: "https://v/140", Bitrate: 129000},
		},
	}
	uc.On("Resolve", "https://youtu.be/abc", models.ResolveOptions{BilibiliSessdata: "s"}).Return(models.Succeeded(info))

	rec := postResolve(t, uc, `{"url":"https://youtu.be/abc","bilibiliSessdata":"s"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Formats []json.RawMessage
			Views   struct {
				VideoOnly []models.VideoFormat `json:"videoOnly"`
				AudioOnly []models.VideoFormat `json:"audioOnly"`
				Codecs    []string             `json:"codecs"`
			} `json:"views"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "abc", body.Data.ID)
	assert.Len(t, body.Data.Formats, 2)
	assert.Len(t, body.Data.Views.VideoOnly, 1)
	assert.Len(t, body.Data.Views.AudioOnly, 1)
	uc.AssertExpectations(t)
}

func TestResolveHandler_FailureStatuses(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		status int
	}{
		{name: "unknown platform", url: "https://example.com/v", status: http.StatusUnprocessableEntity},
		{name: "known platform", url: "https://www.tiktok.com/@a/video/1", status: http.StatusBadGateway},
		{name: "bad scheme", url: "ftp://example.com/v", status: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uc := &mockResolveUC{}
			uc.On("Resolve", tc.url, mock.Anything).Return(models.Failed("nope"))

			rec := postResolve(t, uc, `{"url":"`+tc.url+`"}`)
			assert.Equal(t, tc.status, rec.Code)

			var res models.ResolveResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.False(t, res.Success)
			assert.Equal(t, "nope", res.Error)
		})
	}
}

func TestResolveHandler_MissingURL(t *testing.T) {
	uc := &mockResolveUC{}
	rec := postResolve(t, uc, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	uc.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}
