package thoughts

import (
	"context"

	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
)

// Repository persists thoughts.
type Repository interface {
	Create(ctx context.Context, thought *models.Thought) (*models.Thought, error)
	List(ctx context.Context, skip, limit int) ([]*models.Thought, error)
}
