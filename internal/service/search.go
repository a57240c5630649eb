package service

import (
	"context"

	"github.com/folioworks/careerbase/internal/domain"
)

// ChunkSearchFilters narrows vector search to a document category and/or
// owner. Zero values mean no filtering on that dimension.
type ChunkSearchFilters struct {
	Category domain.DocumentCategory
	OwnerID  string
}

// ChunkSearchResult is one vector search hit. Score is cosine similarity,
// higher is more relevant.
type ChunkSearchResult struct {
	ChunkID    string
	DocumentID string
	Filename   string
	Category   domain.DocumentCategory
	Index      int
	Text       string
	Score      float32
}

// ChunkRepositoryInterface defines the repository interface for chunk
// vectors. Search only ever sees chunks of documents in the embedded state,
// which is what keeps partially ingested documents invisible.
type ChunkRepositoryInterface interface {
	// UpsertChunks writes all chunks of a document; idempotent per
	// (documentID, index).
	UpsertChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
	// Search returns the topK nearest chunks by cosine similarity,
	// descending, ties broken by most recent document upload. topK < 1
	// fails with InvalidInput.
	Search(ctx context.Context, embedding []float32, filters ChunkSearchFilters, topK int) ([]*ChunkSearchResult, error)
	// DeleteByDocument removes every chunk of the document atomically with
	// respect to concurrent searches.
	DeleteByDocument(ctx context.Context, documentID string) error
}
