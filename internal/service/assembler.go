package service

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/folioworks/careerbase/internal/domain"
	"github.com/folioworks/careerbase/internal/telemetry"
)

// MemoryQuerier is the memory-store surface the assembler reads from.
type MemoryQuerier interface {
	Query(ctx context.Context, input QueryInput) ([]*domain.Memory, error)
}

// KnowledgeSearcher is the vector-store surface the assembler reads from.
type KnowledgeSearcher interface {
	Search(ctx context.Context, embedding []float32, filters ChunkSearchFilters, topK int) ([]*ChunkSearchResult, error)
}

// AssemblerConfig controls context assembly.
type AssemblerConfig struct {
	RecentLimit      int
	KnowledgeTopK    int
	InsightThreshold float64
	RecentWindow     time.Duration
}

// DefaultAssemblerConfig provides sane assembly defaults.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		RecentLimit:      10,
		KnowledgeTopK:    5,
		InsightThreshold: 0.6,
		RecentWindow:     30 * 24 * time.Hour,
	}
}

// AssembledContext is the bundle handed to the external answer generator.
// All four fields are always present: empty collections, never nil, because
// the generator unconditionally reads each of them.
type AssembledContext struct {
	RecentMemories    []*domain.Memory
	RelevantKnowledge []*ChunkSearchResult
	CareerInsights    []*domain.Memory
	PersonalContext   map[string]string
}

// ContextAssembler merges memory-store and vector-store results into a
// single ranked context object for one user and query.
type ContextAssembler struct {
	memories MemoryQuerier
	searcher KnowledgeSearcher
	embedder EmbeddingClient
	cfg      AssemblerConfig
}

// NewContextAssembler creates a new ContextAssembler instance
func NewContextAssembler(
	memories MemoryQuerier,
	searcher KnowledgeSearcher,
	embedder EmbeddingClient,
	cfg AssemblerConfig,
) *ContextAssembler {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultAssemblerConfig().RecentLimit
	}
	if cfg.KnowledgeTopK <= 0 {
		cfg.KnowledgeTopK = DefaultAssemblerConfig().KnowledgeTopK
	}
	if cfg.InsightThreshold <= 0 {
		cfg.InsightThreshold = DefaultAssemblerConfig().InsightThreshold
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = DefaultAssemblerConfig().RecentWindow
	}
	return &ContextAssembler{
		memories: memories,
		searcher: searcher,
		embedder: embedder,
		cfg:      cfg,
	}
}

// BuildContext assembles the context for a conversational turn. A memory
// store failure fails the call; a vector store or embedder failure degrades
// to a memories-only context with empty relevant knowledge, because partial
// context beats no context.
func (a *ContextAssembler) BuildContext(ctx context.Context, userID, query string) (*AssembledContext, error) {
	ctx, span := telemetry.StartSpan(ctx, "ContextAssembler.BuildContext", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "build_context",
	})
	defer span.End()

	if userID == "" {
		return nil, domain.ErrMissingUserID
	}

	result := &AssembledContext{
		RecentMemories:    []*domain.Memory{},
		RelevantKnowledge: []*ChunkSearchResult{},
		CareerInsights:    []*domain.Memory{},
		PersonalContext:   map[string]string{},
	}

	now := time.Now().UTC()

	recent, err := a.memories.Query(ctx, QueryInput{
		UserID:   userID,
		FreeText: query,
		Since:    now.Add(-a.cfg.RecentWindow),
		Limit:    a.cfg.RecentLimit,
	})
	if err != nil {
		return nil, err
	}
	result.RecentMemories = recent

	insights, err := a.careerInsights(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.CareerInsights = insights

	result.PersonalContext = aggregatePersonalContext(recent, insights)

	hits, err := a.searchKnowledge(ctx, userID, query)
	if err != nil {
		// degraded context: memories only
		log.Printf("context: knowledge search unavailable for user %s: %v", userID, err)
		telemetry.CaptureError(ctx, err)
		return result, nil
	}
	result.RelevantKnowledge = hits

	return result, nil
}

// careerInsights collects career and goals memories above the importance
// threshold, newest first.
func (a *ContextAssembler) careerInsights(ctx context.Context, userID string) ([]*domain.Memory, error) {
	insights := make([]*domain.Memory, 0)

	for _, category := range []domain.MemoryCategory{domain.MemoryCategoryCareer, domain.MemoryCategoryGoals} {
		mems, err := a.memories.Query(ctx, QueryInput{
			UserID:   userID,
			Category: category,
			Limit:    a.cfg.RecentLimit,
		})
		if err != nil {
			return nil, err
		}
		for _, mem := range mems {
			if mem.Importance >= a.cfg.InsightThreshold {
				insights = append(insights, mem)
			}
		}
	}

	sort.Slice(insights, func(i, j int) bool {
		if !insights[i].CreatedAt.Equal(insights[j].CreatedAt) {
			return insights[i].CreatedAt.After(insights[j].CreatedAt)
		}
		return insights[i].ID < insights[j].ID
	})

	return insights, nil
}

func (a *ContextAssembler) searchKnowledge(ctx context.Context, userID, query string) ([]*ChunkSearchResult, error) {
	if query == "" {
		return []*ChunkSearchResult{}, nil
	}

	embedding, err := a.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := a.searcher.Search(ctx, embedding, ChunkSearchFilters{OwnerID: userID}, a.cfg.KnowledgeTopK)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []*ChunkSearchResult{}
	}
	return hits, nil
}

// aggregatePersonalContext collects stable facts (skills, target roles and
// similar metadata) across memories, deduplicated by key. Memories are
// scanned newest first, so the most recent value for a key wins.
func aggregatePersonalContext(groups ...[]*domain.Memory) map[string]string {
	all := make([]*domain.Memory, 0)
	seen := make(map[string]bool)
	for _, group := range groups {
		for _, mem := range group {
			if !seen[mem.ID] {
				seen[mem.ID] = true
				all = append(all, mem)
			}
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	facts := make(map[string]string)
	for _, mem := range all {
		for key, value := range mem.Metadata {
			if key == "importance" || value == "" {
				continue
			}
			if _, ok := facts[key]; !ok {
				facts[key] = value
			}
		}
	}
	return facts
}
