package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GS-Pro2025/movewise/internal/adapter/remote"
	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	pkgAuth "github.com/GS-Pro2025/movewise/internal/pkg/auth"
	"github.com/GS-Pro2025/movewise/internal/server/http/dto"
	"github.com/GS-Pro2025/movewise/internal/server/http/middleware"
	"github.com/GS-Pro2025/movewise/internal/usecase"
)

// CurrentSession extracts the authenticated session from context.
func CurrentSession(c *gin.Context) *model.Session {
	val, ok := c.Get(middleware.SessionContextKey)
	if !ok {
		return nil
	}
	session, _ := val.(*model.Session)
	return session
}

// bindOptionalJSON decodes the body into dst; an empty body keeps dst as is.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func notifications(n *usecase.Notices) []dto.Notification {
	if n == nil {
		return nil
	}
	items := n.Items()
	out := make([]dto.Notification, 0, len(items))
	for _, item := range items {
		out = append(out, dto.Notification{Level: string(item.Level), Message: item.Message})
	}
	return out
}

func respond(c *gin.Context, status int, data any, n *usecase.Notices) {
	c.JSON(status, dto.Envelope{Data: data, Notifications: notifications(n)})
}

// respondError writes the status for err together with the notices raised
// while serving the request and, for validation failures, the field map.
func respondError(c *gin.Context, err error, data any, n *usecase.Notices) {
	status := statusFor(err)
	body := dto.Envelope{Data: data, Notifications: notifications(n), Error: err.Error()}

	var vErr *domainErrors.ValidationError
	if errors.As(err, &vErr) {
		body.Errors = vErr.Fields
	}
	var limited remote.TooManyRequestsError
	if errors.As(err, &limited) {
		c.Header("Retry-After", retryAfterSeconds(limited))
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		if status == http.StatusInternalServerError {
			body.Error = "internal error"
		}
	}
	c.JSON(status, body)
}

func statusFor(err error) int {
	var (
		conflict *domainErrors.AssignmentConflictError
		apiErr   *domainErrors.APIError
		limited  remote.TooManyRequestsError
	)
	switch {
	case errors.Is(err, domainErrors.ErrValidation),
		errors.Is(err, domainErrors.ErrLocationRequired),
		errors.Is(err, domainErrors.ErrImageTooLarge),
		errors.Is(err, domainErrors.ErrEmptySelection),
		errors.Is(err, domainErrors.ErrUnknownOperator),
		errors.Is(err, domainErrors.ErrInvalidKey):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainErrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domainErrors.ErrUnauthorized),
		errors.Is(err, domainErrors.ErrInvalidCredentials),
		errors.Is(err, pkgAuth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domainErrors.ErrFlowNotFound),
		errors.Is(err, domainErrors.ErrNoPendingOrder),
		errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrBusy),
		errors.Is(err, domainErrors.ErrAlreadyFinished),
		errors.Is(err, domainErrors.ErrOrderInactive),
		errors.Is(err, domainErrors.ErrAlreadyAssigned),
		errors.Is(err, domainErrors.ErrAlreadyExists),
		errors.Is(err, domainErrors.ErrFlowKind),
		errors.Is(err, context.Canceled),
		errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &limited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func retryAfterSeconds(err remote.TooManyRequestsError) string {
	secs := int(err.RetryAfter.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
