package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/thoughtboard/internal/common"
	"github.com/dmitrijs2005/thoughtboard/internal/server/archive"
	"github.com/gin-gonic/gin"
)

// Response details. They are part of the public API and never include the
// underlying cause.
const (
	detailBadLogin         = "Incorrect username or password"
	detailBadToken         = "Could not validate credentials"
	detailNotAuthenticated = "Not authenticated"
	detailUnavailable      = "Service temporarily unavailable"
	detailThrottled        = "Too many failed login attempts"
	detailForbidden        = "Not enough permissions"
	detailExists           = "Username already registered"
	detailNotFound         = "Not found"
	detailNoStorage        = "Export storage is not configured"
	detailInternal         = "Internal server error"
)

type errorResponse struct {
	Detail any `json:"detail"`
}

func abortDetail(c *gin.Context, status int, detail any) {
	c.AbortWithStatusJSON(status, errorResponse{Detail: detail})
}

func abortUnauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	abortDetail(c, http.StatusUnauthorized, detail)
}

// writeServiceError maps service and repository errors to HTTP responses.
// It is the only place where that translation happens.
func (h *handler) writeServiceError(c *gin.Context, err error) {
	var ve *common.ValidationError

	switch {
	case errors.As(err, &ve):
		abortDetail(c, http.StatusUnprocessableEntity, ve.Fields)
	case errors.Is(err, common.ErrValidation):
		abortDetail(c, http.StatusUnprocessableEntity, err.Error())
	case common.IsAuthError(err):
		abortUnauthorized(c, detailBadToken)
	case errors.Is(err, common.ErrUnavailable):
		h.logger.Warn(c.Request.Context(), "dependency unavailable", "error", err, "request_id", requestID(c))
		abortDetail(c, http.StatusServiceUnavailable, detailUnavailable)
	case errors.Is(err, archive.ErrNotConfigured):
		abortDetail(c, http.StatusServiceUnavailable, detailNoStorage)
	case errors.Is(err, common.ErrAlreadyExists):
		abortDetail(c, http.StatusConflict, detailExists)
	case errors.Is(err, common.ErrForbidden):
		abortDetail(c, http.StatusForbidden, detailForbidden)
	case errors.Is(err, common.ErrorNotFound):
		abortDetail(c, http.StatusNotFound, detailNotFound)
	default:
		h.logger.Error(c.Request.Context(), "request failed", "error", err, "request_id", requestID(c))
		abortDetail(c, http.StatusInternalServerError, detailInternal)
	}
}
