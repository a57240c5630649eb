//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/folioworks/careerbase/internal/domain"
	"github.com/folioworks/careerbase/internal/pagination"
	"github.com/folioworks/careerbase/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(ownerID string) *domain.Document {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Document{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Filename:   "resume.txt",
		Category:   domain.CategoryResumeVersion,
		SizeBytes:  128,
		Status:     domain.DocumentStatusProcessing,
		Content:    "Experienced engineer with a background in distributed systems.",
		UploadedAt: now,
	}
}

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("user-1")
	require.NoError(t, repo.Create(ctx, doc))

	retrieved, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, retrieved.ID)
	assert.Equal(t, doc.OwnerID, retrieved.OwnerID)
	assert.Equal(t, doc.Category, retrieved.Category)
	assert.Equal(t, domain.DocumentStatusProcessing, retrieved.Status)
	assert.Equal(t, doc.Content, retrieved.Content)
	assert.Empty(t, retrieved.FailureReason)
	assert.Nil(t, retrieved.ProcessedAt)
}

func TestDocumentRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_MarkEmbedded_CompareAndSet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("user-1")
	require.NoError(t, repo.Create(ctx, doc))

	processedAt := time.Now().UTC().Truncate(time.Microsecond)
	ok, err := repo.MarkEmbedded(ctx, doc.ID, 5, processedAt)
	require.NoError(t, err)
	assert.True(t, ok)

	retrieved, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusEmbedded, retrieved.Status)
	assert.Equal(t, 5, retrieved.ChunkCount)
	require.NotNil(t, retrieved.ProcessedAt)

	// terminal state: a second transition must lose
	ok, err = repo.MarkEmbedded(ctx, doc.ID, 9, processedAt)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.MarkFailed(ctx, doc.ID, "should not apply", processedAt)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocumentRepository_MarkFailed(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("user-1")
	require.NoError(t, repo.Create(ctx, doc))

	ok, err := repo.MarkFailed(ctx, doc.ID, "embedding provider unavailable", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	retrieved, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusError, retrieved.Status)
	assert.Equal(t, "embedding provider unavailable", retrieved.FailureReason)
}

func TestDocumentRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("user-1")
	require.NoError(t, repo.Create(ctx, doc))

	deleted, err := repo.Delete(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDocumentRepository_ListWithCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		doc := newTestDocument("user-1")
		doc.UploadedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, doc))
	}
	other := newTestDocument("user-2")
	require.NoError(t, repo.Create(ctx, other))

	page, err := repo.ListWithCursor(ctx, "user-1", nil, 3)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.True(t, page.HasMore)
	assert.NotEmpty(t, page.NextCursor)
	// newest first
	assert.True(t, page.Items[0].UploadedAt.After(page.Items[1].UploadedAt))

	cursor, err := pagination.DecodeCursor(page.NextCursor)
	require.NoError(t, err)

	page2, err := repo.ListWithCursor(ctx, "user-1", cursor, 3)
	require.NoError(t, err)
	require.Len(t, page2.Items, 2)
	assert.False(t, page2.HasMore)
	assert.Empty(t, page2.NextCursor)

	for _, d := range append(page.Items, page2.Items...) {
		assert.Equal(t, "user-1", d.OwnerID)
	}
}

func TestDocumentRepository_Stats(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	embedded := newTestDocument("user-1")
	require.NoError(t, repo.Create(ctx, embedded))
	ok, err := repo.MarkEmbedded(ctx, embedded.ID, 2, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)

	plan := newTestDocument("user-1")
	plan.Category = domain.CategoryCareerPlan
	require.NoError(t, repo.Create(ctx, plan))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 1, stats.DocumentsByCategory[domain.CategoryResumeVersion])
	assert.Equal(t, 1, stats.DocumentsByCategory[domain.CategoryCareerPlan])
	assert.Equal(t, 1, stats.DocumentsByStatus[domain.DocumentStatusEmbedded])
	assert.Equal(t, 1, stats.DocumentsByStatus[domain.DocumentStatusProcessing])
	assert.Equal(t, 0, stats.TotalChunks)
}
