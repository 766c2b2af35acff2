package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amankumarsingh77/media-resolver/internal/models"
)

func TestMemoryRepo_Expires(t *testing.T) {
	repo := NewMemoryRepo(time.Minute).(*memoryRepo)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, models.BatchProgress{ID: "a", Total: 3, Completed: 1}))
	require.NoError(t, repo.Save(ctx, models.BatchProgress{ID: "a", Total: 3, Completed: 2}))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Completed)

	now = now.Add(2 * time.Minute)
	got, err = repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Save(ctx, models.BatchProgress{ID: "b", Total: 1}))
	assert.Len(t, repo.entries, 1)
}
