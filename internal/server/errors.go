package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apikeydomain "github.com/athenajq/lunchline/internal/apikey/domain"
	"github.com/athenajq/lunchline/internal/authorization"
	orderdomain "github.com/athenajq/lunchline/internal/order/domain"
	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
	scheduleconfigdomain "github.com/athenajq/lunchline/internal/scheduleconfig/domain"
)

// APIError is the wire shape for every error response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string { return e.Code }

var (
	ErrUnauthorized       = &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "authentication required"}
	ErrForbidden          = &APIError{Status: http.StatusForbidden, Code: "forbidden", Message: "not allowed"}
	ErrNotFound           = &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	ErrTooManyRequests    = &APIError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many requests"}
	ErrServiceUnavailable = &APIError{Status: http.StatusServiceUnavailable, Code: "service_unavailable", Message: "service unavailable"}
)

func newValidationError(field, code, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
		Field:   field,
	}
}

func invalidRequestError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body could not be parsed",
	}
}

// AbortWithError translates service errors into wire responses. Unknown
// errors become an opaque 500.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		abort(c, apiErr)
		return
	}

	switch {
	case errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, scheduleconfigdomain.ErrNotFound),
		errors.Is(err, apikeydomain.ErrNotFound):
		abort(c, &APIError{Status: http.StatusNotFound, Code: err.Error(), Message: "resource not found"})
	case errors.Is(err, orderdomain.ErrNotOwner),
		errors.Is(err, scheduledomain.ErrNotMember),
		errors.Is(err, authorization.ErrForbidden):
		abort(c, &APIError{Status: http.StatusForbidden, Code: err.Error(), Message: "not allowed"})
	case errors.Is(err, orderdomain.ErrGroupClaimed),
		errors.Is(err, orderdomain.ErrGroupClosed),
		errors.Is(err, orderdomain.ErrNotActive):
		abort(c, &APIError{Status: http.StatusConflict, Code: err.Error(), Message: "order conflicts with the current schedule state"})
	case errors.Is(err, orderdomain.ErrInvalidDates),
		errors.Is(err, orderdomain.ErrMissingIdempotencyKey),
		errors.Is(err, scheduledomain.ErrInvalidRange),
		errors.Is(err, scheduledomain.ErrMalformedConfig),
		errors.Is(err, scheduledomain.ErrUnresolvedUserSchedule),
		errors.Is(err, orderdomain.ErrInvalidOrganization),
		errors.Is(err, scheduledomain.ErrInvalidOrganization),
		errors.Is(err, scheduleconfigdomain.ErrInvalidOrganization),
		errors.Is(err, apikeydomain.ErrInvalidOrganization),
		errors.Is(err, apikeydomain.ErrInvalidName):
		abort(c, &APIError{Status: http.StatusBadRequest, Code: err.Error(), Message: "invalid request"})
	default:
		abort(c, &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal error"})
	}
}

func abort(c *gin.Context, apiErr *APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
}
