package repository

import (
	"context"
	"errors"
	"time"

	"github.com/folioworks/careerbase/internal/domain"
	"github.com/folioworks/careerbase/internal/pagination"
	"github.com/folioworks/careerbase/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, owner_id, filename, category, size_bytes, status, failure_reason, content, chunk_count, uploaded_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.OwnerID, d.Filename, d.Category, d.SizeBytes, d.Status, nullableString(d.FailureReason), d.Content, d.ChunkCount, d.UploadedAt, d.ProcessedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	var failureReason *string
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, filename, category, size_bytes, status, failure_reason, content, chunk_count, uploaded_at, processed_at
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.OwnerID, &d.Filename, &d.Category, &d.SizeBytes, &d.Status, &failureReason, &d.Content, &d.ChunkCount, &d.UploadedAt, &d.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if failureReason != nil {
		d.FailureReason = *failureReason
	}
	return &d, nil
}

func (r *DocumentRepository) ListWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*service.DocumentPageResult, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, owner_id, filename, category, size_bytes, status, failure_reason, content, chunk_count, uploaded_at, processed_at
			 FROM documents
			 WHERE owner_id = $1 AND (uploaded_at, id) < ($2, $3)
			 ORDER BY uploaded_at DESC, id DESC
			 LIMIT $4`,
			ownerID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, owner_id, filename, category, size_bytes, status, failure_reason, content, chunk_count, uploaded_at, processed_at
			 FROM documents
			 WHERE owner_id = $1
			 ORDER BY uploaded_at DESC, id DESC
			 LIMIT $2`,
			ownerID, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanDocumentRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.UploadedAt)
	}

	return &service.DocumentPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) (bool, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM documents WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, err
	}
	return cmdTag.RowsAffected() > 0, nil
}

// MarkEmbedded transitions processing -> embedded. The WHERE clause is the
// compare-and-set: a document that was deleted or already reached a
// terminal state matches no row and the update reports false.
func (r *DocumentRepository) MarkEmbedded(ctx context.Context, id string, chunkCount int, processedAt time.Time) (bool, error) {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents
		 SET status = $1, chunk_count = $2, processed_at = $3, failure_reason = NULL
		 WHERE id = $4 AND status = $5`,
		domain.DocumentStatusEmbedded, chunkCount, processedAt, id, domain.DocumentStatusProcessing,
	)
	if err != nil {
		return false, err
	}
	return cmdTag.RowsAffected() > 0, nil
}

// MarkFailed transitions processing -> error with the failure reason.
func (r *DocumentRepository) MarkFailed(ctx context.Context, id string, reason string, processedAt time.Time) (bool, error) {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents
		 SET status = $1, failure_reason = $2, processed_at = $3
		 WHERE id = $4 AND status = $5`,
		domain.DocumentStatusError, reason, processedAt, id, domain.DocumentStatusProcessing,
	)
	if err != nil {
		return false, err
	}
	return cmdTag.RowsAffected() > 0, nil
}

// Stats recomputes knowledge base statistics from committed rows on every
// call.
func (r *DocumentRepository) Stats(ctx context.Context) (*domain.KnowledgeBaseStats, error) {
	stats := &domain.KnowledgeBaseStats{
		DocumentsByCategory: make(map[domain.DocumentCategory]int),
		DocumentsByStatus:   make(map[domain.DocumentStatus]int),
	}

	rows, err := r.db.Query(ctx,
		`SELECT category, status, COUNT(*) FROM documents GROUP BY category, status`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var category domain.DocumentCategory
		var status domain.DocumentStatus
		var count int
		if err := rows.Scan(&category, &status, &count); err != nil {
			return nil, err
		}
		stats.TotalDocuments += count
		stats.DocumentsByCategory[category] += count
		stats.DocumentsByStatus[status] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&stats.TotalChunks)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.Document, error) {
	var results []*domain.Document
	for rows.Next() {
		var d domain.Document
		var failureReason *string
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Filename, &d.Category, &d.SizeBytes, &d.Status, &failureReason, &d.Content, &d.ChunkCount, &d.UploadedAt, &d.ProcessedAt); err != nil {
			return nil, err
		}
		if failureReason != nil {
			d.FailureReason = *failureReason
		}
		results = append(results, &d)
	}
	return results, rows.Err()
}
