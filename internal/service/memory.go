package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/folioworks/careerbase/internal/domain"
	"github.com/folioworks/careerbase/internal/telemetry"
)

// MemoryRepositoryInterface defines the repository interface for memory
// persistence. Every read is scoped to a userID at the data-access
// boundary; there is no way to query across users through this interface.
type MemoryRepositoryInterface interface {
	Create(ctx context.Context, m *domain.Memory) error
	GetByID(ctx context.Context, id string) (*domain.Memory, error)
	// ListByUser returns memories for the user, newest first then by
	// importance. A zero since means no recency bound; an empty category
	// means all categories.
	ListByUser(ctx context.Context, userID string, category domain.MemoryCategory, since time.Time, limit int) ([]*domain.Memory, error)
}

// Free-text ranking blends keyword relevance with importance and recency.
const (
	relevanceWeight  = 0.5
	importanceWeight = 0.3
	recencyWeight    = 0.2

	// recencyHalfLifeDays controls how fast the recency component decays.
	recencyHalfLifeDays = 30

	queryCandidateMultiplier = 4
	minQueryCandidates       = 50
)

// MemoryService records and retrieves per-user conversational facts.
// Memories are immutable once recorded: importance and category are fixed
// at write time.
type MemoryService struct {
	repo    MemoryRepositoryInterface
	uuidGen UUIDGenerator
}

// NewMemoryService creates a new MemoryService instance
func NewMemoryService(repo MemoryRepositoryInterface) *MemoryService {
	return &MemoryService{
		repo:    repo,
		uuidGen: &DefaultUUIDGenerator{},
	}
}

// WithUUIDGen overrides the UUID generator (for testing).
func (s *MemoryService) WithUUIDGen(gen UUIDGenerator) *MemoryService {
	s.uuidGen = gen
	return s
}

// RecordInput represents the input for recording a memory
type RecordInput struct {
	UserID   string
	Content  string
	Category domain.MemoryCategory // optional; inferred when empty
	Metadata map[string]string
}

// QueryInput represents the input for querying memories
type QueryInput struct {
	UserID   string
	Category domain.MemoryCategory // optional
	FreeText string                // optional
	Since    time.Time             // optional recency bound
	Limit    int
}

// Record stores a new memory. Category inference is total, so recording
// never fails on classification; importance is computed deterministically
// from content and metadata and never recomputed later.
func (s *MemoryService) Record(ctx context.Context, input RecordInput) (*domain.Memory, error) {
	ctx, span := telemetry.StartSpan(ctx, "MemoryService.Record", telemetry.SpanAttributes{
		UserID:    input.UserID,
		Operation: "record",
	})
	defer span.End()

	if input.UserID == "" {
		return nil, domain.ErrMissingUserID
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, domain.ErrEmptyContent
	}

	category := input.Category
	if category == "" {
		category = InferMemoryCategory(input.Content)
	} else if !domain.IsValidMemoryCategory(category) {
		return nil, domain.ErrInvalidMemoryCategory
	}

	importance := ScoreImportance(input.Content, input.Metadata)

	mem := domain.NewMemory(
		s.uuidGen.NewString(),
		input.UserID,
		input.Content,
		category,
		importance,
		input.Metadata,
		time.Now().UTC(),
	)
	if err := domain.ValidateMemory(mem); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid memory", err)
	}

	if err := s.repo.Create(ctx, mem); err != nil {
		return nil, err
	}

	return mem, nil
}

// GetByID returns a memory owned by userID. Requesting another user's
// memory fails with AccessDenied, not NotFound, so the caller can tell a
// scoping mistake from a stale id.
func (s *MemoryService) GetByID(ctx context.Context, userID, memoryID string) (*domain.Memory, error) {
	if userID == "" {
		return nil, domain.ErrMissingUserID
	}

	mem, err := s.repo.GetByID(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	if mem.UserID != userID {
		return nil, domain.ErrMemoryAccessDenied
	}
	return mem, nil
}

// Query returns memories for one user. With FreeText the ranking blends
// keyword relevance, importance and recency; with only a category it is
// recency then importance (the repository's natural order).
func (s *MemoryService) Query(ctx context.Context, input QueryInput) ([]*domain.Memory, error) {
	ctx, span := telemetry.StartSpan(ctx, "MemoryService.Query", telemetry.SpanAttributes{
		UserID:    input.UserID,
		Operation: "query",
	})
	defer span.End()

	if input.UserID == "" {
		return nil, domain.ErrMissingUserID
	}
	if input.Category != "" && !domain.IsValidMemoryCategory(input.Category) {
		return nil, domain.ErrInvalidMemoryCategory
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	if strings.TrimSpace(input.FreeText) == "" {
		return s.repo.ListByUser(ctx, input.UserID, input.Category, input.Since, limit)
	}

	candidateLimit := limit * queryCandidateMultiplier
	if candidateLimit < minQueryCandidates {
		candidateLimit = minQueryCandidates
	}

	candidates, err := s.repo.ListByUser(ctx, input.UserID, input.Category, input.Since, candidateLimit)
	if err != nil {
		return nil, err
	}

	ranked := rankMemories(candidates, input.FreeText, time.Now().UTC())
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

type scoredMemory struct {
	mem   *domain.Memory
	score float64
}

// rankMemories orders candidates by the blended free-text score. Sorting is
// stable with deterministic tie-breaks (newer first, then id), so the same
// inputs always produce the same order.
func rankMemories(candidates []*domain.Memory, query string, now time.Time) []*domain.Memory {
	terms := queryTerms(query)

	scored := make([]scoredMemory, 0, len(candidates))
	for _, mem := range candidates {
		scored = append(scored, scoredMemory{
			mem:   mem,
			score: relevanceWeight*termRelevance(mem.Content, terms) + importanceWeight*mem.Importance + recencyWeight*recencyScore(mem.CreatedAt, now),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if !scored[i].mem.CreatedAt.Equal(scored[j].mem.CreatedAt) {
			return scored[i].mem.CreatedAt.After(scored[j].mem.CreatedAt)
		}
		return scored[i].mem.ID < scored[j].mem.ID
	})

	result := make([]*domain.Memory, len(scored))
	for i, sm := range scored {
		result[i] = sm.mem
	}
	return result
}

// queryTerms lowercases and splits the query, dropping one- and two-letter
// noise words.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()")
		if len([]rune(f)) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

// termRelevance is the fraction of query terms present in the content.
func termRelevance(content string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// recencyScore decays from 1.0 toward 0 as the memory ages.
func recencyScore(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age < 0 {
		age = 0
	}
	days := age.Hours() / 24
	return 1 / (1 + days/recencyHalfLifeDays)
}
