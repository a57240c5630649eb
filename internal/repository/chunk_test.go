//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/folioworks/careerbase/internal/domain"
	"github.com/folioworks/careerbase/internal/service"
	"github.com/folioworks/careerbase/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitVec returns a 1536-dim unit vector pointing along the given axis, so
// cosine similarity between distinct axes is exactly zero and identical
// axes score 1.
func unitVec(axis int) []float32 {
	v := make([]float32, 1536)
	v[axis] = 1
	return v
}

func insertEmbeddedDocument(ctx context.Context, t *testing.T, repo *DocumentRepository, ownerID string, category domain.DocumentCategory) *domain.Document {
	t.Helper()
	doc := newTestDocument(ownerID)
	doc.Category = category
	require.NoError(t, repo.Create(ctx, doc))
	ok, err := repo.MarkEmbedded(ctx, doc.ID, 1, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)
	return doc
}

func insertChunk(ctx context.Context, t *testing.T, repo *ChunkRepository, documentID string, index, axis int, text string) {
	t.Helper()
	require.NoError(t, repo.UpsertChunks(ctx, documentID, []domain.Chunk{{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Index:      index,
		Text:       text,
		Embedding:  unitVec(axis),
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}}))
}

func TestChunkRepository_SearchRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := insertEmbeddedDocument(ctx, t, docRepo, "user-1", domain.CategoryResumeVersion)
	insertChunk(ctx, t, chunkRepo, doc.ID, 0, 0, "exact match chunk")
	insertChunk(ctx, t, chunkRepo, doc.ID, 1, 1, "orthogonal chunk")

	results, err := chunkRepo.Search(ctx, unitVec(0), service.ChunkSearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "exact match chunk", results[0].Text)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
	assert.InDelta(t, 0.0, float64(results[1].Score), 1e-5)
	assert.Equal(t, doc.ID, results[0].DocumentID)
	assert.Equal(t, "resume.txt", results[0].Filename)
	assert.Equal(t, domain.CategoryResumeVersion, results[0].Category)
}

func TestChunkRepository_SearchExcludesNonEmbeddedDocuments(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	// Chunks can exist for a processing document inside an uncommitted
	// ingestion; search must never surface them.
	processing := newTestDocument("user-1")
	require.NoError(t, docRepo.Create(ctx, processing))
	insertChunk(ctx, t, chunkRepo, processing.ID, 0, 0, "invisible chunk")

	failed := newTestDocument("user-1")
	require.NoError(t, docRepo.Create(ctx, failed))
	insertChunk(ctx, t, chunkRepo, failed.ID, 0, 0, "failed doc chunk")
	ok, err := docRepo.MarkFailed(ctx, failed.ID, "boom", time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)

	results, err := chunkRepo.Search(ctx, unitVec(0), service.ChunkSearchFilters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChunkRepository_SearchFilters(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	resume := insertEmbeddedDocument(ctx, t, docRepo, "user-1", domain.CategoryResumeVersion)
	insertChunk(ctx, t, chunkRepo, resume.ID, 0, 0, "resume chunk")

	plan := insertEmbeddedDocument(ctx, t, docRepo, "user-1", domain.CategoryCareerPlan)
	insertChunk(ctx, t, chunkRepo, plan.ID, 0, 0, "plan chunk")

	otherUser := insertEmbeddedDocument(ctx, t, docRepo, "user-2", domain.CategoryResumeVersion)
	insertChunk(ctx, t, chunkRepo, otherUser.ID, 0, 0, "other user chunk")

	byCategory, err := chunkRepo.Search(ctx, unitVec(0), service.ChunkSearchFilters{Category: domain.CategoryCareerPlan}, 10)
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "plan chunk", byCategory[0].Text)

	byOwner, err := chunkRepo.Search(ctx, unitVec(0), service.ChunkSearchFilters{OwnerID: "user-2"}, 10)
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	assert.Equal(t, "other user chunk", byOwner[0].Text)

	limited, err := chunkRepo.Search(ctx, unitVec(0), service.ChunkSearchFilters{}, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestChunkRepository_SearchRejectsInvalidTopK(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	chunkRepo := NewChunkRepository(pool)

	_, err := chunkRepo.Search(ctx, unitVec(0), service.ChunkSearchFilters{}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidTopK)
}

func TestChunkRepository_UpsertReplacesSameIndex(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := insertEmbeddedDocument(ctx, t, docRepo, "user-1", domain.CategoryResumeVersion)
	insertChunk(ctx, t, chunkRepo, doc.ID, 0, 0, "first version")
	insertChunk(ctx, t, chunkRepo, doc.ID, 0, 0, "second version")

	results, err := chunkRepo.Search(ctx, unitVec(0), service.ChunkSearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "second version", results[0].Text)
}

func TestChunkRepository_DeleteByDocument(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := insertEmbeddedDocument(ctx, t, docRepo, "user-1", domain.CategoryResumeVersion)
	insertChunk(ctx, t, chunkRepo, doc.ID, 0, 0, "chunk")

	require.NoError(t, chunkRepo.DeleteByDocument(ctx, doc.ID))

	results, err := chunkRepo.Search(ctx, unitVec(0), service.ChunkSearchFilters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
