package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/thoughtboard/internal/common"
	"github.com/dmitrijs2005/thoughtboard/internal/dbx"
	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
	"github.com/dmitrijs2005/thoughtboard/internal/server/repositories/repomanager"
)

// ThoughtService posts and lists thoughts.
type ThoughtService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewThoughtService constructs a ThoughtService.
func NewThoughtService(db *sql.DB, m repomanager.RepositoryManager) *ThoughtService {
	return &ThoughtService{db: db, repomanager: m}
}

// Create stores content for ownerID. The owner is re-read in the same
// transaction so a deleted account cannot post.
func (s *ThoughtService) Create(ctx context.Context, ownerID int64, content string) (*models.Thought, error) {
	content, err := ValidateThought(content)
	if err != nil {
		return nil, err
	}

	var created *models.Thought
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).FindUserByID(ctx, ownerID); err != nil {
			return err
		}

		t, err := s.repomanager.Thoughts(tx).Create(ctx, &models.Thought{Content: content, OwnerID: &ownerID})
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error creating thought: %w", err)
	}
	return created, nil
}

// List returns a page of thoughts, newest first. See NormalizePage for the
// accepted skip and limit values.
func (s *ThoughtService) List(ctx context.Context, skip, limit int) ([]*models.Thought, error) {
	skip, limit, err := NormalizePage(skip, limit)
	if err != nil {
		return nil, err
	}

	items, err := s.repomanager.Thoughts(s.db).List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing thoughts: %w", err)
	}
	return items, nil
}
