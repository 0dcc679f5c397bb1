package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/thoughtboard/internal/common"
	"github.com/dmitrijs2005/thoughtboard/internal/dbx"
	"github.com/dmitrijs2005/thoughtboard/internal/server/auth"
	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
	"github.com/dmitrijs2005/thoughtboard/internal/server/repositories/thoughts"
	"github.com/dmitrijs2005/thoughtboard/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fakeUsersRepo struct {
	mu        sync.Mutex
	byName    map[string]*models.User
	nextID    int64
	createErr error
	findErr   error
	updateErr error
	updated   map[int64]string
	adminErr  error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byName: map[string]*models.User{}, updated: map[int64]string{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byName[u.Username]; ok {
		return nil, common.ErrAlreadyExists
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	f.byName[u.Username] = u
	return u, nil
}

func (f *fakeUsersRepo) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.byName {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) SetAdmin(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return f.adminErr
	}
	u, ok := f.byName[username]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsAdmin = true
	return nil
}

func (f *fakeUsersRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated[id] = hash
	for _, u := range f.byName {
		if u.ID == id {
			u.HashedPassword = hash
		}
	}
	return nil
}

type fakeThoughtsRepo struct {
	createErr error
	listErr   error
	created   []*models.Thought
	listOut   []*models.Thought

	gotSkip, gotLimit int
}

func (f *fakeThoughtsRepo) Create(_ context.Context, t *models.Thought) (*models.Thought, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	t.ID = int64(len(f.created) + 1)
	t.CreatedAt = time.Now()
	f.created = append(f.created, t)
	return t, nil
}

func (f *fakeThoughtsRepo) List(_ context.Context, skip, limit int) ([]*models.Thought, error) {
	f.gotSkip, f.gotLimit = skip, limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeThoughtsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return m.u }
func (m *fakeRepoManager) Thoughts(dbx.DBTX) thoughts.Repository       { return m.t }

type recorder struct {
	mu      sync.Mutex
	results []string
}

func (r *recorder) RecordLogin(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testHasher() *auth.Hasher {
	return auth.NewHasher(auth.Argon2idParams{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1})
}

func newTestAuthenticator(t *testing.T, h *auth.Hasher) *auth.Authenticator {
	t.Helper()
	issuer, err := auth.NewIssuer([]byte("0123456789abcdef0123456789abcdef"), 30*time.Minute)
	require.NoError(t, err)
	a, err := auth.NewAuthenticator(h, issuer)
	require.NoError(t, err)
	return a
}
