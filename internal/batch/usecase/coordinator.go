package usecase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amankumarsingh77/media-resolver/internal/batch"
	"github.com/amankumarsingh77/media-resolver/internal/config"
	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/internal/resolve"
	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
	"github.com/amankumarsingh77/media-resolver/pkg/logger"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

const (
	defaultConcurrency = 3
	cpuBackoff         = 500 * time.Millisecond
	cpuMaxWaits        = 10
	publishTimeout     = 2 * time.Second
)

type batchUC struct {
	cfg          *config.Config
	resolveUC    resolve.UseCase
	progressRepo batch.ProgressRepository
	logger       logger.Logger
	cpuCheck     func(maxCPUUsage float64) (bool, float64)
	sleep        func(ctx context.Context, d time.Duration)
}

func NewBatchUseCase(cfg *config.Config, resolveUC resolve.UseCase, progressRepo batch.ProgressRepository, log logger.Logger) batch.UseCase {
	return &batchUC{
		cfg:          cfg,
		resolveUC:    resolveUC,
		progressRepo: progressRepo,
		logger:       log,
		cpuCheck:     utils.CheckCPUUsage,
		sleep:        sleepCtx,
	}
}

func (u *batchUC) Run(ctx context.Context, batchID string, urls []string, onProgress models.BatchProgressFunc) (*models.BatchReport, error) {
	if len(urls) == 0 {
		return nil, httperrors.NewInvalidInput("no URLs to resolve")
	}
	if limit := u.cfg.Batch.MaxURLs; limit > 0 && len(urls) > limit {
		return nil, httperrors.NewInvalidInput("too many URLs in one batch")
	}

	concurrency := u.cfg.Batch.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	c := newCollector(batchID, len(urls), func(p models.BatchProgress) {
		u.publish(ctx, p)
		if onProgress != nil {
			onProgress(p)
		}
	})
	u.publish(ctx, c.snapshot())

	g := &errgroup.Group{}
	g.SetLimit(concurrency)
	for _, rawURL := range urls {
		if ctx.Err() != nil {
			break
		}
		u.waitForCPU(ctx)
		rawURL := rawURL
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			c.add(rawURL, u.resolveUC.Resolve(ctx, rawURL, models.ResolveOptions{}))
			return nil
		})
	}
	_ = g.Wait()

	report, final := c.finish()
	u.publish(ctx, final)
	u.logger.Infof("Batch - %s finished: %d/%d succeeded, %d duplicates, %d failed",
		batchID, report.Succeeded, report.Total, report.Duplicates, report.Failed)

	if err := ctx.Err(); err != nil && report.Completed < report.Total {
		return report, httperrors.Wrap(httperrors.Cancelled, err, "batch cancelled")
	}
	return report, nil
}

// Progress returns nil, nil when the batch is unknown or has expired.
func (u *batchUC) Progress(ctx context.Context, batchID string) (*models.BatchProgress, error) {
	progress, err := u.progressRepo.Get(ctx, batchID)
	if err != nil {
		u.logger.Errorf("Progress - progressRepo.Get error: %v", err)
		return nil, httperrors.Wrap(httperrors.Internal, err, "could not read batch progress")
	}
	return progress, nil
}

// waitForCPU delays the next admission while the host is above the configured load.
func (u *batchUC) waitForCPU(ctx context.Context) {
	for i := 0; i < cpuMaxWaits; i++ {
		ok, usage := u.cpuCheck(u.cfg.Worker.MaxCPUUsage)
		if ok {
			return
		}
		u.logger.Infof("CPU usage is high: %f", usage)
		u.sleep(ctx, cpuBackoff)
		if ctx.Err() != nil {
			return
		}
	}
}

func (u *batchUC) publish(ctx context.Context, progress models.BatchProgress) {
	if u.progressRepo == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := u.progressRepo.Save(pctx, progress); err != nil {
		u.logger.Warnf("Batch - progressRepo.Save error: %v", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// collector is the only state shared between batch workers.
type collector struct {
	mu         sync.Mutex
	report     *models.BatchReport
	seen       map[string]struct{}
	onProgress models.BatchProgressFunc
}

func newCollector(batchID string, total int, onProgress models.BatchProgressFunc) *collector {
	return &collector{
		report: &models.BatchReport{
			ID:      batchID,
			Total:   total,
			Results: make([]*models.VideoInfo, 0, total),
		},
		seen:       make(map[string]struct{}, total),
		onProgress: onProgress,
	}
}

func (c *collector) add(rawURL string, res models.ResolveResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.report.Completed++
	switch {
	case !res.OK():
		c.report.Failed++
		c.report.Failures = append(c.report.Failures, models.BatchFailure{URL: rawURL, Reason: res.Error})
	default:
		key := res.Data.CanonicalID()
		if _, dup := c.seen[key]; dup {
			c.report.Duplicates++
			break
		}
		c.seen[key] = struct{}{}
		c.report.Succeeded++
		c.report.Results = append(c.report.Results, res.Data)
	}

	if c.onProgress != nil {
		c.onProgress(c.progressLocked(false))
	}
}

func (c *collector) snapshot() models.BatchProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progressLocked(false)
}

func (c *collector) finish() (*models.BatchReport, models.BatchProgress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report, c.progressLocked(true)
}

func (c *collector) progressLocked(done bool) models.BatchProgress {
	return models.BatchProgress{
		ID:         c.report.ID,
		Total:      c.report.Total,
		Completed:  c.report.Completed,
		Succeeded:  c.report.Succeeded,
		Duplicates: c.report.Duplicates,
		Failed:     c.report.Failed,
		Done:       done,
	}
}
