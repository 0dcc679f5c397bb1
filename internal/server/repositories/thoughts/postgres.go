// Package thoughts provides the PostgreSQL-backed repository for thoughts.
package thoughts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/thoughtboard/internal/dbx"
	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts thought and fills in its ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, thought *models.Thought) (*models.Thought, error) {
	query :=
		`INSERT INTO thoughts (content, owner_id)
		 VALUES ($1, $2)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, thought.Content, thought.OwnerID).Scan(&thought.ID, &thought.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return thought, nil
}

// List returns up to limit thoughts after skipping skip, newest first.
// Ties on created_at are broken by id so paging is stable.
func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]*models.Thought, error) {
	query :=
		`SELECT id, content, created_at, owner_id FROM thoughts
		 ORDER BY created_at DESC, id DESC
		 OFFSET $1 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select thoughts: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Thought, 0)
	for rows.Next() {
		var item models.Thought
		if err := rows.Scan(&item.ID, &item.Content, &item.CreatedAt, &item.OwnerID); err != nil {
			return nil, fmt.Errorf("scan thought: %w", err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}
