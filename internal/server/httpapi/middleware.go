package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/thoughtboard/internal/common"
	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

// HeaderRequestID carries the request correlation id in both directions.
const HeaderRequestID = "X-Request-ID"

const (
	ctxKeyRequestID = "request_id"
	ctxKeyUser      = "user"

	maxRequestIDLen = 128
)

// requestIDMiddleware reuses a sane inbound X-Request-ID or mints a ULID.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" || len(id) > maxRequestIDLen {
			id = ulid.Make().String()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}

// observabilityMiddleware logs every request and records it in metrics.
func (h *handler) observabilityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		h.metrics.RecordHTTP(c.Request.Method, route, status, elapsed)

		args := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", requestID(c),
		}
		if status >= http.StatusInternalServerError {
			h.logger.Error(c.Request.Context(), "http request", args...)
			return
		}
		h.logger.Info(c.Request.Context(), "http request", args...)
	}
}

// bearerToken extracts the credentials of an "Authorization: Bearer" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authMiddleware resolves the bearer token to a user and stores it in the
// gin context.
func (h *handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, detailNotAuthenticated)
			return
		}

		user, err := h.users.Authenticate(c.Request.Context(), token)
		if err != nil {
			if common.IsAuthError(err) {
				abortUnauthorized(c, detailBadToken)
				return
			}
			h.writeServiceError(c, err)
			return
		}

		c.Set(ctxKeyUser, user)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsAdmin {
			abortDetail(c, http.StatusForbidden, detailForbidden)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
