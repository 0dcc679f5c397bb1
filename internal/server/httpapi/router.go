// Package httpapi exposes the Thought Board services over HTTP using gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/thoughtboard/internal/logging"
	"github.com/dmitrijs2005/thoughtboard/internal/server/archive"
	"github.com/dmitrijs2005/thoughtboard/internal/server/metrics"
	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
	"github.com/dmitrijs2005/thoughtboard/internal/server/services"
	"github.com/dmitrijs2005/thoughtboard/internal/server/throttle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// UserService is the account API consumed by the handlers.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// ThoughtService is the thought API consumed by the handlers.
type ThoughtService interface {
	Create(ctx context.Context, ownerID int64, content string) (*models.Thought, error)
	List(ctx context.Context, skip, limit int) ([]*models.Thought, error)
}

// Exporter snapshots all thoughts to object storage.
type Exporter interface {
	Export(ctx context.Context) (*archive.Result, error)
}

// Deps are the collaborators of the router. Users and Thoughts are required.
type Deps struct {
	Users    UserService
	Thoughts ThoughtService
	Exporter Exporter
	Limiter  throttle.Limiter
	Metrics  *metrics.Metrics
	Logger   logging.Logger

	// Ready reports whether the backing stores are reachable.
	Ready       func(ctx context.Context) error
	CORSOrigins []string
	Debug       bool
}

type handler struct {
	users    UserService
	thoughts ThoughtService
	exporter Exporter
	limiter  throttle.Limiter
	metrics  *metrics.Metrics
	logger   logging.Logger
	ready    func(ctx context.Context) error
}

// NewRouter builds the gin engine with middleware and all routes registered.
func NewRouter(d Deps) *gin.Engine {
	if d.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	h := &handler{
		users:    d.Users,
		thoughts: d.Thoughts,
		exporter: d.Exporter,
		limiter:  d.Limiter,
		metrics:  d.Metrics,
		logger:   d.Logger,
		ready:    d.Ready,
	}
	if h.logger == nil {
		h.logger = logging.NopLogger{}
	}
	if h.limiter == nil {
		h.limiter = throttle.NewMemoryLimiter(throttle.Policy{})
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(h.observabilityMiddleware())

	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", HeaderRequestID},
			ExposeHeaders:    []string{HeaderRequestID, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/", h.root)
	r.GET("/healthz", h.healthz)
	r.GET("/readyz", h.readyz)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	r.POST("/token", h.login)

	authed := h.authMiddleware()

	users := r.Group("/users")
	users.POST("/", h.register)
	users.GET("/me", authed, h.me)

	thoughts := r.Group("/thoughts")
	thoughts.GET("/", h.listThoughts)
	thoughts.POST("/", authed, h.createThought)

	admin := r.Group("/admin", authed, requireAdmin())
	admin.POST("/thoughts/export", h.exportThoughts)

	r.NoRoute(func(c *gin.Context) {
		abortDetail(c, http.StatusNotFound, detailNotFound)
	})

	return r
}
