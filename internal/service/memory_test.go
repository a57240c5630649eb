package service

import (
	"context"
	"testing"
	"time"

	"github.com/folioworks/careerbase/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMemoryService_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("infers category and scores importance", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		svc := NewMemoryService(repo).WithUUIDGen(NewMockUUIDGenerator("mem-1"))

		repo.On("Create", ctx, mock.MatchedBy(func(m *domain.Memory) bool {
			return m.ID == "mem-1" &&
				m.UserID == "user-1" &&
				m.Category == domain.MemoryCategoryCareer &&
				m.Importance > importanceBase &&
				m.Importance < importanceHighFloor
		})).Return(nil)

		mem, err := svc.Record(ctx, RecordInput{
			UserID:  "user-1",
			Content: "They made an offer for the staff engineer position",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.MemoryCategoryCareer, mem.Category)
		assert.InDelta(t, importanceBase+importanceSignalBoost, mem.Importance, 1e-9)
		repo.AssertExpectations(t)
	})

	t.Run("explicit category wins over inference", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		svc := NewMemoryService(repo).WithUUIDGen(NewMockUUIDGenerator("mem-1"))

		repo.On("Create", ctx, mock.Anything).Return(nil)

		mem, err := svc.Record(ctx, RecordInput{
			UserID:   "user-1",
			Content:  "They made an offer",
			Category: domain.MemoryCategoryOther,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.MemoryCategoryOther, mem.Category)
	})

	t.Run("critical metadata floors importance", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		svc := NewMemoryService(repo).WithUUIDGen(NewMockUUIDGenerator("mem-1"))

		repo.On("Create", ctx, mock.Anything).Return(nil)

		mem, err := svc.Record(ctx, RecordInput{
			UserID:   "user-1",
			Content:  "Prefers remote work",
			Metadata: map[string]string{"importance": "critical"},
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, mem.Importance, 0.95)
	})

	t.Run("rejects blank content", func(t *testing.T) {
		svc := NewMemoryService(new(MockMemoryRepository))

		_, err := svc.Record(ctx, RecordInput{UserID: "user-1", Content: "   "})
		assert.ErrorIs(t, err, domain.ErrEmptyContent)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		svc := NewMemoryService(new(MockMemoryRepository))

		_, err := svc.Record(ctx, RecordInput{
			UserID:   "user-1",
			Content:  "something",
			Category: "hobbies",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidMemoryCategory)
	})

	t.Run("rejects missing user", func(t *testing.T) {
		svc := NewMemoryService(new(MockMemoryRepository))

		_, err := svc.Record(ctx, RecordInput{Content: "something"})
		assert.ErrorIs(t, err, domain.ErrMissingUserID)
	})
}

func TestMemoryService_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("returns own memory", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		svc := NewMemoryService(repo)

		mem := &domain.Memory{ID: "mem-1", UserID: "user-1", Content: "fact", Category: domain.MemoryCategoryOther, Importance: 0.35, CreatedAt: now}
		repo.On("GetByID", ctx, "mem-1").Return(mem, nil)

		got, err := svc.GetByID(ctx, "user-1", "mem-1")
		require.NoError(t, err)
		assert.Equal(t, mem, got)
	})

	t.Run("denies access to another user's memory", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		svc := NewMemoryService(repo)

		mem := &domain.Memory{ID: "mem-1", UserID: "user-2", Content: "fact", Category: domain.MemoryCategoryOther, Importance: 0.35, CreatedAt: now}
		repo.On("GetByID", ctx, "mem-1").Return(mem, nil)

		_, err := svc.GetByID(ctx, "user-1", "mem-1")
		assert.ErrorIs(t, err, domain.ErrMemoryAccessDenied)
	})

	t.Run("propagates not found", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		svc := NewMemoryService(repo)

		repo.On("GetByID", ctx, "missing").Return(nil, domain.ErrMemoryNotFound)

		_, err := svc.GetByID(ctx, "user-1", "missing")
		assert.ErrorIs(t, err, domain.ErrMemoryNotFound)
	})
}

func TestMemoryService_Query(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	memAt := func(id string, category domain.MemoryCategory, content string, importance float64, age time.Duration) *domain.Memory {
		return &domain.Memory{
			ID:         id,
			UserID:     "user-1",
			Content:    content,
			Category:   category,
			Importance: importance,
			CreatedAt:  now.Add(-age),
		}
	}

	t.Run("category filter returns only that category, newest first", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		svc := NewMemoryService(repo)

		career := []*domain.Memory{
			memAt("m3", domain.MemoryCategoryCareer, "interview scheduled", 0.5, time.Hour),
			memAt("m2", domain.MemoryCategoryCareer, "recruiter reached out", 0.5, 2*time.Hour),
			memAt("m1", domain.MemoryCategoryCareer, "applied to acme", 0.5, 3*time.Hour),
		}
		repo.On("ListByUser", ctx, "user-1", domain.MemoryCategoryCareer, time.Time{}, 5).Return(career, nil)

		got, err := svc.Query(ctx, QueryInput{UserID: "user-1", Category: domain.MemoryCategoryCareer, Limit: 5})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "m3", got[0].ID)
		assert.Equal(t, "m2", got[1].ID)
		assert.Equal(t, "m1", got[2].ID)
	})

	t.Run("free text ranking prefers matching content", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		svc := NewMemoryService(repo)

		candidates := []*domain.Memory{
			memAt("m1", domain.MemoryCategoryOther, "enjoys hiking on weekends", 0.35, time.Hour),
			memAt("m2", domain.MemoryCategoryCareer, "negotiating salary with acme", 0.35, time.Hour),
		}
		repo.On("ListByUser", ctx, "user-1", domain.MemoryCategory(""), time.Time{}, 50).Return(candidates, nil)

		got, err := svc.Query(ctx, QueryInput{UserID: "user-1", FreeText: "salary negotiation acme", Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "m2", got[0].ID)
	})

	t.Run("free text ranking breaks relevance ties by importance", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		svc := NewMemoryService(repo)

		candidates := []*domain.Memory{
			memAt("low", domain.MemoryCategoryCareer, "offer from acme", 0.35, time.Hour),
			memAt("high", domain.MemoryCategoryCareer, "offer from acme", 0.9, time.Hour),
		}
		repo.On("ListByUser", ctx, "user-1", domain.MemoryCategory(""), time.Time{}, 50).Return(candidates, nil)

		got, err := svc.Query(ctx, QueryInput{UserID: "user-1", FreeText: "offer acme", Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, "high", got[0].ID)
		assert.Equal(t, "low", got[1].ID)
	})

	t.Run("free text result is truncated to the limit", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		svc := NewMemoryService(repo)

		candidates := []*domain.Memory{
			memAt("m1", domain.MemoryCategoryOther, "note one", 0.35, time.Hour),
			memAt("m2", domain.MemoryCategoryOther, "note two", 0.35, 2*time.Hour),
			memAt("m3", domain.MemoryCategoryOther, "note three", 0.35, 3*time.Hour),
		}
		repo.On("ListByUser", ctx, "user-1", domain.MemoryCategory(""), time.Time{}, 50).Return(candidates, nil)

		got, err := svc.Query(ctx, QueryInput{UserID: "user-1", FreeText: "note", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("defaults limit to ten", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		svc := NewMemoryService(repo)

		repo.On("ListByUser", ctx, "user-1", domain.MemoryCategory(""), time.Time{}, 10).Return([]*domain.Memory{}, nil)

		got, err := svc.Query(ctx, QueryInput{UserID: "user-1"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		svc := NewMemoryService(new(MockMemoryRepository))

		_, err := svc.Query(ctx, QueryInput{UserID: "user-1", Category: "hobbies"})
		assert.ErrorIs(t, err, domain.ErrInvalidMemoryCategory)
	})

	t.Run("rejects missing user", func(t *testing.T) {
		svc := NewMemoryService(new(MockMemoryRepository))

		_, err := svc.Query(ctx, QueryInput{Category: domain.MemoryCategoryCareer})
		assert.ErrorIs(t, err, domain.ErrMissingUserID)
	})
}

func TestRankMemories_Deterministic(t *testing.T) {
	now := time.Now().UTC()
	mems := []*domain.Memory{
		{ID: "b", Content: "same text", Importance: 0.5, CreatedAt: now},
		{ID: "a", Content: "same text", Importance: 0.5, CreatedAt: now},
	}

	first := rankMemories(mems, "same", now)
	second := rankMemories(mems, "same", now)

	assert.Equal(t, "a", first[0].ID)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)
}
