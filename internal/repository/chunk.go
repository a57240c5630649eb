package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/folioworks/careerbase/internal/domain"
	"github.com/folioworks/careerbase/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository handles persistence of chunked document embeddings.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// UpsertChunks inserts the document's chunks, replacing any chunk that
// already exists at the same index.
func (r *ChunkRepository) UpsertChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO document_chunks
				(id, document_id, chunk_index, content, start_offset, end_offset, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (document_id, chunk_index) DO UPDATE
			 SET content = EXCLUDED.content,
			     start_offset = EXCLUDED.start_offset,
			     end_offset = EXCLUDED.end_offset,
			     embedding = EXCLUDED.embedding,
			     created_at = EXCLUDED.created_at`,
			c.ID,
			c.DocumentID,
			c.Index,
			c.Text,
			c.StartOffset,
			c.EndOffset,
			pgvector.NewVector(c.Embedding),
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// Search runs cosine similarity search over chunks of embedded documents.
// Chunks of processing or errored documents never match because the join
// filters on the terminal embedded status.
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, filters service.ChunkSearchFilters, topK int) ([]*service.ChunkSearchResult, error) {
	if topK < 1 {
		return nil, domain.ErrInvalidTopK
	}

	query := `SELECT c.id, c.document_id, d.filename, d.category, c.chunk_index, c.content,
	       1 - (c.embedding <=> $1) AS score
	 FROM document_chunks c
	 JOIN documents d ON d.id = c.document_id
	 WHERE d.status = $2`
	args := []any{pgvector.NewVector(embedding), domain.DocumentStatusEmbedded}

	if filters.OwnerID != "" {
		args = append(args, filters.OwnerID)
		query += fmt.Sprintf(" AND d.owner_id = $%d", len(args))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		query += fmt.Sprintf(" AND d.category = $%d", len(args))
	}

	args = append(args, topK)
	query += fmt.Sprintf(" ORDER BY score DESC, d.uploaded_at DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*service.ChunkSearchResult
	for rows.Next() {
		var res service.ChunkSearchResult
		var score float64
		if err := rows.Scan(&res.ChunkID, &res.DocumentID, &res.Filename, &res.Category, &res.Index, &res.Text, &score); err != nil {
			return nil, err
		}
		res.Score = float32(score)
		results = append(results, &res)
	}
	return results, rows.Err()
}

func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM document_chunks WHERE document_id = $1`,
		documentID,
	)
	return err
}
