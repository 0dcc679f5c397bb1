package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/thoughtboard/internal/client/api"
	"github.com/dmitrijs2005/thoughtboard/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	registered [2]string
	posted     []string
	postToken  string
	skip       int
	limit      int
	items      []api.Thought
	err        error
}

func (f *fakeService) Register(_ context.Context, username, password string) (*api.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = [2]string{username, password}
	return &api.User{ID: 7, Username: username}, nil
}

func (f *fakeService) Login(_ context.Context, username, password string) (*api.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	if password != "right-password" {
		return nil, &api.Error{Status: http.StatusUnauthorized, Detail: "Incorrect username or password"}
	}
	return &api.Token{AccessToken: "tok-" + username, TokenType: "bearer"}, nil
}

func (f *fakeService) PostThought(_ context.Context, token, content string) (*api.Thought, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.postToken = token
	f.posted = append(f.posted, content)
	return &api.Thought{ID: int64(len(f.posted)), Content: content}, nil
}

func (f *fakeService) ListThoughts(_ context.Context, skip, limit int) ([]api.Thought, error) {
	f.skip, f.limit = skip, limit
	return f.items, f.err
}

type harness struct {
	app    *App
	svc    *fakeService
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newHarness(stdin, token string) *harness {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Token = token

	h := &harness{svc: &fakeService{}, out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	h.app = newApp(cfg, h.svc, strings.NewReader(stdin), h.out, h.errOut)
	return h
}

func TestRun_Usage(t *testing.T) {
	h := newHarness("", "")
	assert.ErrorIs(t, h.app.Run(context.Background(), nil), ErrUsage)
	assert.Contains(t, h.errOut.String(), "Commands:")

	assert.ErrorIs(t, h.app.Run(context.Background(), []string{"dance"}), ErrUsage)
	assert.Contains(t, h.errOut.String(), "Unknown command: dance")

	require.NoError(t, h.app.Run(context.Background(), []string{"help"}))
	assert.Contains(t, h.out.String(), "register")
}

func TestRegister(t *testing.T) {
	stubPasswords(t, "long-password", "long-password")
	h := newHarness("alice\n", "")

	require.NoError(t, h.app.Run(context.Background(), []string{"register"}))
	assert.Equal(t, [2]string{"alice", "long-password"}, h.svc.registered)
	assert.Equal(t, "Registered alice (id 7)\n", h.out.String())
	assert.NotContains(t, h.errOut.String(), "long-password")
}

func TestRegister_PasswordMismatch(t *testing.T) {
	stubPasswords(t, "long-password", "other-password")
	h := newHarness("alice\n", "")

	assert.ErrorContains(t, h.app.Run(context.Background(), []string{"register"}), "do not match")
	assert.Empty(t, h.svc.registered[0])
}

func TestLogin_PrintsToken(t *testing.T) {
	stubPasswords(t, "right-password")
	h := newHarness("alice\n", "")

	require.NoError(t, h.app.Run(context.Background(), []string{"-a", "http://x", "login"}))
	assert.Equal(t, "tok-alice\n", h.out.String())
}

func TestLogin_Rejected(t *testing.T) {
	stubPasswords(t, "wrong")
	h := newHarness("alice\n", "")

	err := h.app.Run(context.Background(), []string{"login"})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Empty(t, h.out.String())
}

func TestPost(t *testing.T) {
	h := newHarness("", "")
	assert.ErrorIs(t, h.app.Run(context.Background(), []string{"post", "hi"}), ErrNoToken)

	h = newHarness("", "tok")
	require.NoError(t, h.app.Run(context.Background(), []string{"-token", "tok", "post", "hello", "board"}))
	assert.Equal(t, []string{"hello board"}, h.svc.posted)
	assert.Equal(t, "tok", h.svc.postToken)
	assert.Equal(t, "Posted thought #1\n", h.out.String())
}

func TestPost_FromStdin(t *testing.T) {
	h := newHarness("first line\nsecond line\n\n", "tok")

	require.NoError(t, h.app.Run(context.Background(), []string{"post"}))
	assert.Equal(t, []string{"first line\nsecond line"}, h.svc.posted)
}

func TestPost_ServerError(t *testing.T) {
	h := newHarness("", "tok")
	h.svc.err = errors.New("request failed")

	assert.Error(t, h.app.Run(context.Background(), []string{"post", "x"}))
}

func TestList(t *testing.T) {
	h := newHarness("", "")
	require.NoError(t, h.app.Run(context.Background(), []string{"list"}))
	assert.Equal(t, "No thoughts yet.\n", h.out.String())
	assert.Zero(t, h.svc.limit)

	h = newHarness("", "")
	h.svc.items = []api.Thought{
		{ID: 2, Content: "newer", CreatedAt: time.Now()},
		{ID: 1, Content: "older", CreatedAt: time.Now().Add(-time.Hour)},
	}
	require.NoError(t, h.app.Run(context.Background(), []string{"list", "-skip", "5", "-limit=2"}))
	assert.Equal(t, 5, h.svc.skip)
	assert.Equal(t, 2, h.svc.limit)

	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "#2 "))
	assert.True(t, strings.HasSuffix(lines[1], "older"))

	assert.ErrorIs(t, h.app.Run(context.Background(), []string{"list", "-limit", "many"}), ErrUsage)
}

func TestPositionals(t *testing.T) {
	got := positionals([]string{"-a", "http://x", "post", "-token=t", "hi", "--", "-dash"})
	assert.Equal(t, []string{"post", "hi", "-dash"}, got)
}
