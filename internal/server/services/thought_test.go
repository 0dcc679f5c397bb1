package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/thoughtboard/internal/common"
	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThoughtCreate_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	users := newFakeUsersRepo()
	users.byName["alice"] = &models.User{ID: 1, Username: "alice"}
	rm := &fakeRepoManager{u: users, t: &fakeThoughtsRepo{}}
	s := NewThoughtService(db, rm)

	got, err := s.Create(context.Background(), 1, "  first thought  ")
	require.NoError(t, err)
	assert.Equal(t, "first thought", got.Content)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, int64(1), *got.OwnerID)
	assert.Len(t, rm.t.created, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThoughtCreate_ValidationSkipsDB(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	s := NewThoughtService(db, &fakeRepoManager{u: newFakeUsersRepo(), t: &fakeThoughtsRepo{}})

	_, err := s.Create(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThoughtCreate_OwnerGone(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: newFakeUsersRepo(), t: &fakeThoughtsRepo{}}
	s := NewThoughtService(db, rm)

	_, err := s.Create(context.Background(), 99, "hello")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Empty(t, rm.t.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThoughtCreate_RepoError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	users := newFakeUsersRepo()
	users.byName["alice"] = &models.User{ID: 1, Username: "alice"}
	s := NewThoughtService(db, &fakeRepoManager{u: users, t: &fakeThoughtsRepo{createErr: errBoom{}}})

	_, err := s.Create(context.Background(), 1, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error creating thought: boom")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThoughtList(t *testing.T) {
	repo := &fakeThoughtsRepo{listOut: []*models.Thought{{ID: 2}, {ID: 1}}}
	s := NewThoughtService(nil, &fakeRepoManager{t: repo})
	ctx := context.Background()

	got, err := s.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 0, repo.gotSkip)
	assert.Equal(t, DefaultPageLimit, repo.gotLimit)

	_, err = s.List(ctx, 5, 1000)
	require.NoError(t, err)
	assert.Equal(t, 5, repo.gotSkip)
	assert.Equal(t, MaxPageLimit, repo.gotLimit)

	_, err = s.List(ctx, -1, 10)
	assert.ErrorIs(t, err, common.ErrValidation)

	repo.listErr = errBoom{}
	_, err = s.List(ctx, 0, 10)
	assert.ErrorContains(t, err, "error listing thoughts")
}
