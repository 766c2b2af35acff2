package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/amankumarsingh77/media-resolver/internal/batch"
	"github.com/amankumarsingh77/media-resolver/internal/models"
)

const progressKeyPrefix = "batch:"

type batchRedisRepo struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewBatchRedisRepo(redisClient *redis.Client, ttl time.Duration) batch.ProgressRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &batchRedisRepo{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func (r *batchRedisRepo) Save(ctx context.Context, progress models.BatchProgress) error {
	key := progressKeyPrefix + progress.ID
	pipe := r.redisClient.TxPipeline()
	pipe.HSet(ctx, key,
		"id", progress.ID,
		"total", progress.Total,
		"completed", progress.Completed,
		"succeeded", progress.Succeeded,
		"duplicates", progress.Duplicates,
		"failed", progress.Failed,
		"done", progress.Done,
	)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "batchRedisRepo.Save.Exec")
	}
	return nil
}

func (r *batchRedisRepo) Get(ctx context.Context, batchID string) (*models.BatchProgress, error) {
	cmd := r.redisClient.HGetAll(ctx, progressKeyPrefix+batchID)
	values, err := cmd.Result()
	if err != nil {
		return nil, errors.Wrap(err, "batchRedisRepo.Get.HGetAll")
	}
	if len(values) == 0 {
		return nil, nil
	}
	progress := &models.BatchProgress{}
	if err := cmd.Scan(progress); err != nil {
		return nil, errors.Wrap(err, "batchRedisRepo.Get.Scan")
	}
	return progress, nil
}
