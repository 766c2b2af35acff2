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
	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

type mockBatchUC struct {
	mock.Mock
}

func (m *mockBatchUC) Run(ctx context.Context, batchID string, urls []string, onProgress models.BatchProgressFunc) (*models.BatchReport, error) {
	args := m.Called(urls)
	report, _ := args.Get(0).(*models.BatchReport)
	return report, args.Error(1)
}

func (m *mockBatchUC) Progress(ctx context.Context, batchID string) (*models.BatchProgress, error) {
	args := m.Called(batchID)
	progress, _ := args.Get(0).(*models.BatchProgress)
	return progress, args.Error(1)
}

func postBatch(t *testing.T, uc *mockBatchUC, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, NewBatchHandler(uc, logger.NewNop()).Run()(c))
	return rec
}

func TestBatchHandler_MergesURLsAndText(t *testing.T) {
	uc := &mockBatchUC{}
	want := []string{"https://youtu.be/a", "https://x.com/u/status/2", "https://b23.tv/xyz"}
	uc.On("Run", want).Return(&models.BatchReport{ID: "id", Total: 3, Completed: 3, Succeeded: 3}, nil)

	rec := postBatch(t, uc, `{"urls":["https://youtu.be/a"],"text":"look https://x.com/u/status/2, and https://youtu.be/a 还有 https://b23.tv/xyz。"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderBatchID))

	var report models.BatchReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 3, report.Succeeded)
	uc.AssertExpectations(t)
}

func TestBatchHandler_NoURLs(t *testing.T) {
	uc := &mockBatchUC{}
	rec := postBatch(t, uc, `{"text":"nothing to see"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	uc.AssertNotCalled(t, "Run", mock.Anything)
}

func TestBatchHandler_TooMany(t *testing.T) {
	uc := &mockBatchUC{}
	uc.On("Run", mock.Anything).Return(nil, httperrors.NewInvalidInput("too many URLs in one batch"))

	rec := postBatch(t, uc, `{"urls":["https://youtu.be/a","https://youtu.be/b"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many URLs")
}

func TestBatchHandler_Progress(t *testing.T) {
	uc := &mockBatchUC{}
	uc.On("Progress", "known").Return(&models.BatchProgress{ID: "known", Total: 4, Completed: 2}, nil)
	uc.On("Progress", "gone").Return(nil, nil)

	e := echo.New()
	h := NewBatchHandler(uc, logger.NewNop())

	get := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/batch/"+id, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(id)
		require.NoError(t, h.Progress()(c))
		return rec
	}

	rec := get("known")
	require.Equal(t, http.StatusOK, rec.Code)
	var progress models.BatchProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.Equal(t, 2, progress.Completed)
	assert.Equal(t, 4, progress.Total)

	assert.Equal(t, http.StatusNotFound, get("gone").Code)
}
