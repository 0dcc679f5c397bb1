package httpapi

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/thoughtboard/internal/common"
	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
	"github.com/dmitrijs2005/thoughtboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

const welcomeMessage = "Welcome to the Thought Board API MVP!"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type thoughtCreateRequest struct {
	Content string `json:"content"`
}

type thoughtResponse struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	OwnerID   *int64    `json:"owner_id"`
}

type exportResponse struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

func toThoughtResponse(t *models.Thought) thoughtResponse {
	return thoughtResponse{ID: t.ID, Content: t.Content, CreatedAt: t.CreatedAt.UTC(), OwnerID: t.OwnerID}
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
}

func (h *handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) readyz(c *gin.Context) {
	if h.ready != nil {
		if err := h.ready(c.Request.Context()); err != nil {
			h.logger.Warn(c.Request.Context(), "readiness check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// login implements the OAuth2 password flow: form fields username and
// password, answered with a bearer token.
func (h *handler) login(c *gin.Context) {
	ctx := c.Request.Context()
	username := c.PostForm("username")
	password := c.PostForm("password")

	ve := &common.ValidationError{}
	if username == "" {
		ve.Add("username", "field required")
	}
	if password == "" {
		ve.Add("password", "field required")
	}
	if err := ve.OrNil(); err != nil {
		h.writeServiceError(c, err)
		return
	}

	allowed, retryAfter, err := h.limiter.Allow(ctx, username)
	if err != nil {
		h.logger.Warn(ctx, "login limiter unavailable", "error", err)
		allowed = true
	}
	if !allowed {
		h.metrics.RecordLogin(services.LoginThrottled)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		abortDetail(c, http.StatusTooManyRequests, detailThrottled)
		return
	}

	pair, err := h.users.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			if ferr := h.limiter.Fail(ctx, username); ferr != nil {
				h.logger.Warn(ctx, "login limiter unavailable", "error", ferr)
			}
			abortUnauthorized(c, detailBadLogin)
			return
		}
		h.writeServiceError(c, err)
		return
	}

	if rerr := h.limiter.Reset(ctx, username); rerr != nil {
		h.logger.Warn(ctx, "login limiter unavailable", "error", rerr)
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, TokenType: pair.TokenType})
}

func (h *handler) register(c *gin.Context) {
	var req userCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, toUserResponse(currentUser(c)))
}

func (h *handler) createThought(c *gin.Context) {
	var req thoughtCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	t, err := h.thoughts.Create(c.Request.Context(), currentUser(c).ID, req.Content)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toThoughtResponse(t))
}

func (h *handler) listThoughts(c *gin.Context) {
	ve := &common.ValidationError{}
	skip := queryInt(c, "skip", ve)
	limit := queryInt(c, "limit", ve)
	if err := ve.OrNil(); err != nil {
		h.writeServiceError(c, err)
		return
	}

	items, err := h.thoughts.List(c.Request.Context(), skip, limit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	out := make([]thoughtResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toThoughtResponse(t))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) exportThoughts(c *gin.Context) {
	if h.exporter == nil {
		abortDetail(c, http.StatusServiceUnavailable, detailNoStorage)
		return
	}

	res, err := h.exporter.Export(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	h.logger.Info(c.Request.Context(), "thoughts exported",
		"key", res.Key, "count", res.Count, "user_id", currentUser(c).ID)
	c.JSON(http.StatusOK, exportResponse{Key: res.Key, URL: res.URL, Count: res.Count})
}

// queryInt reads an optional integer query parameter. Absent means 0.
func queryInt(c *gin.Context, name string, ve *common.ValidationError) int {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		ve.Add(name, "must be an integer")
		return 0
	}
	return n
}
