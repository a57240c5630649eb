package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/folioworks/careerbase/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MemoryRepository struct {
	db dbtx
}

func NewMemoryRepository(pool *pgxpool.Pool) *MemoryRepository {
	return &MemoryRepository{db: pool}
}

func NewMemoryRepositoryWithTx(tx pgx.Tx) *MemoryRepository {
	return &MemoryRepository{db: tx}
}

func (r *MemoryRepository) Create(ctx context.Context, m *domain.Memory) error {
	metadata, err := json.Marshal(m.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode memory metadata: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO memories (id, user_id, content, category, importance, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.UserID, m.Content, m.Category, m.Importance, metadata, m.CreatedAt,
	)
	return err
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Memory, error) {
	var m domain.Memory
	var metadata []byte
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, content, category, importance, metadata, created_at
		 FROM memories WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.UserID, &m.Content, &m.Category, &m.Importance, &metadata, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemoryNotFound
		}
		return nil, err
	}
	if err := decodeMetadata(metadata, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByUser returns one user's memories newest first, then by importance.
// A zero since means no recency bound; an empty category means all
// categories.
func (r *MemoryRepository) ListByUser(ctx context.Context, userID string, category domain.MemoryCategory, since time.Time, limit int) ([]*domain.Memory, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, user_id, content, category, importance, metadata, created_at
	 FROM memories
	 WHERE user_id = $1`
	args := []any{userID}

	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if !since.IsZero() {
		args = append(args, since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, importance DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Memory
	for rows.Next() {
		var m domain.Memory
		var metadata []byte
		if err := rows.Scan(&m.ID, &m.UserID, &m.Content, &m.Category, &m.Importance, &metadata, &m.CreatedAt); err != nil {
			return nil, err
		}
		if err := decodeMetadata(metadata, &m); err != nil {
			return nil, err
		}
		results = append(results, &m)
	}
	return results, rows.Err()
}

func decodeMetadata(raw []byte, m *domain.Memory) error {
	if len(raw) == 0 {
		m.Metadata = map[string]string{}
		return nil
	}
	if err := json.Unmarshal(raw, &m.Metadata); err != nil {
		return fmt.Errorf("failed to decode memory metadata: %w", err)
	}
	if m.Metadata == nil {
		m.Metadata = map[string]string{}
	}
	return nil
}
