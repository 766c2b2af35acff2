package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amankumarsingh77/media-resolver/internal/batch/repository"
	"github.com/amankumarsingh77/media-resolver/internal/config"
	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
)

type fakeResolve struct {
	fn       func(ctx context.Context, rawURL string) models.ResolveResult
	inFlight int32
	peak     int32
	delay    time.Duration
}

func (f *fakeResolve) Resolve(ctx context.Context, rawURL string, _ models.ResolveOptions) models.ResolveResult {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.fn(ctx, rawURL)
}

func byURLID(ids map[string]string) func(context.Context, string) models.ResolveResult {
	return func(_ context.Context, rawURL string) models.ResolveResult {
		id, ok := ids[rawURL]
		if !ok {
			return models.Failed("no video here")
		}
		return models.Succeeded(&models.VideoInfo{ID: id, Platform: models.PlatformYouTube, Title: id})
	}
}

func newTestUC(resolver *fakeResolve, concurrency int) *batchUC {
	cfg := &config.Config{Batch: config.BatchConfig{Concurrency: concurrency, MaxURLs: 50}}
	uc := NewBatchUseCase(cfg, resolver, repository.NewMemoryRepo(time.Hour), logger.NewNop()).(*batchUC)
	uc.cpuCheck = func(float64) (bool, float64) { return true, 1 }
	return uc
}

func TestRun_DuplicatesCountedOnce(t *testing.T) {
	resolver := &fakeResolve{fn: byURLID(map[string]string{
		"https://youtu.be/a":                "a",
		"https://www.youtube.com/watch?v=a": "a",
		"https://youtu.be/b":                "b",
		"https://youtu.be/c":                "c",
		"https://www.youtube.com/shorts/d":  "d",
	})}
	uc := newTestUC(resolver, 3)

	urls := []string{
		"https://youtu.be/a",
		"https://youtu.be/b",
		"https://www.youtube.com/watch?v=a",
		"https://youtu.be/c",
		"https://www.youtube.com/shorts/d",
	}
	report, err := uc.Run(context.Background(), "b1", urls, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 5, report.Completed)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Results, 4)

	seen := map[string]bool{}
	for _, info := range report.Results {
		assert.False(t, seen[info.CanonicalID()], "duplicate %s inserted", info.CanonicalID())
		seen[info.CanonicalID()] = true
	}
}

func TestRun_NeverExceedsConcurrency(t *testing.T) {
	ids := map[string]string{}
	var urls []string
	for i := 0; i < 12; i++ {
		u := fmt.Sprintf("https://youtu.be/v%d", i)
		ids[u] = fmt.Sprintf("v%d", i)
		urls = append(urls, u)
	}
	resolver := &fakeResolve{fn: byURLID(ids), delay: 20 * time.Millisecond}
	uc := newTestUC(resolver, 2)

	report, err := uc.Run(context.Background(), "b2", urls, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, report.Succeeded)
	assert.LessOrEqual(t, atomic.LoadInt32(&resolver.peak), int32(2))
}

func TestRun_ProgressIsSerializedAndMonotonic(t *testing.T) {
	resolver := &fakeResolve{fn: byURLID(map[string]string{"https://x.com/a/status/1": "1"})}
	uc := newTestUC(resolver, 3)

	var (
		mu        sync.Mutex
		completed []int
	)
	onProgress := func(p models.BatchProgress) {
		mu.Lock()
		defer mu.Unlock()
		completed = append(completed, p.Completed)
		assert.Equal(t, 4, p.Total)
	}

	urls := []string{"https://x.com/a/status/1", "https://bad.example/1", "https://bad.example/2", "https://bad.example/3"}
	report, err := uc.Run(context.Background(), "b3", urls, onProgress)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, completed)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 3, report.Failed)
	require.Len(t, report.Failures, 3)
	assert.Equal(t, "no video here", report.Failures[0].Reason)
}

func TestRun_PublishesFinalProgress(t *testing.T) {
	resolver := &fakeResolve{fn: byURLID(map[string]string{"https://youtu.be/a": "a"})}
	repo := repository.NewMemoryRepo(time.Hour)
	cfg := &config.Config{Batch: config.BatchConfig{Concurrency: 1}}
	uc := NewBatchUseCase(cfg, resolver, repo, logger.NewNop()).(*batchUC)
	uc.cpuCheck = func(float64) (bool, float64) { return true, 1 }

	_, err := uc.Run(context.Background(), "b4", []string{"https://youtu.be/a", "https://youtu.be/zzz"}, nil)
	require.NoError(t, err)

	progress, err := uc.Progress(context.Background(), "b4")
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.True(t, progress.Done)
	assert.Equal(t, 2, progress.Completed)
	assert.Equal(t, 1, progress.Succeeded)
	assert.Equal(t, 1, progress.Failed)

	missing, err := uc.Progress(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRun_RejectsEmptyAndOversizedBatches(t *testing.T) {
	uc := newTestUC(&fakeResolve{fn: byURLID(nil)}, 3)
	uc.cfg.Batch.MaxURLs = 2

	_, err := uc.Run(context.Background(), "b5", nil, nil)
	assert.True(t, httperrors.Is(err, httperrors.InvalidInput))

	_, err = uc.Run(context.Background(), "b5", []string{"a", "b", "c"}, nil)
	assert.True(t, httperrors.Is(err, httperrors.InvalidInput))
}

func TestRun_WaitsWhileCPUIsHigh(t *testing.T) {
	resolver := &fakeResolve{fn: byURLID(map[string]string{"https://youtu.be/a": "a"})}
	uc := newTestUC(resolver, 1)

	var checks int32
	uc.cpuCheck = func(float64) (bool, float64) {
		return atomic.AddInt32(&checks, 1) > 2, 97
	}
	var slept int32
	uc.sleep = func(context.Context, time.Duration) { atomic.AddInt32(&slept, 1) }

	report, err := uc.Run(context.Background(), "b6", []string{"https://youtu.be/a"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, int32(2), atomic.LoadInt32(&slept))
}

func TestRun_CancelledBeforeAllComplete(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	resolver := &fakeResolve{fn: func(_ context.Context, rawURL string) models.ResolveResult {
		cancel()
		return models.Succeeded(&models.VideoInfo{ID: rawURL, Platform: models.PlatformOther})
	}}
	uc := newTestUC(resolver, 1)

	report, err := uc.Run(ctx, "b7", []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"}, nil)
	require.Error(t, err)
	assert.True(t, httperrors.Is(err, httperrors.Cancelled))
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 1, report.Succeeded)
}
