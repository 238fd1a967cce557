package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	companydomain "github.com/smallbiznis/marketpay/internal/company/domain"
	"github.com/smallbiznis/marketpay/internal/processor"
	txndomain "github.com/smallbiznis/marketpay/internal/transaction/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware translates domain errors pushed onto the gin
// context into the HTTP error envelope.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    err.Error(),
			Message: "validation error",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, companydomain.ErrAlreadyExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	default:
		var upstream *processor.Error
		if errors.As(err, &upstream) {
			// Keep the upstream message for diagnostics.
			return http.StatusBadGateway, errorPayload{
				Type:    "upstream_error",
				Code:    upstream.Code,
				Message: upstream.Error(),
			}
		}
		if errors.Is(err, processor.ErrNotConfigured) {
			return http.StatusServiceUnavailable, errorPayload{
				Type:    "service_unavailable",
				Message: "payment processor is not configured",
			}
		}
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, companydomain.ErrInvalidID),
		errors.Is(err, companydomain.ErrInvalidName),
		errors.Is(err, companydomain.ErrInvalidEmail),
		errors.Is(err, companydomain.ErrInvalidURL),
		errors.Is(err, txndomain.ErrInvalidID),
		errors.Is(err, txndomain.ErrInvalidCompany),
		errors.Is(err, txndomain.ErrInvalidCustomer),
		errors.Is(err, txndomain.ErrInvalidAmount),
		errors.Is(err, txndomain.ErrInvalidCurrency),
		errors.Is(err, txndomain.ErrInvalidFee),
		errors.Is(err, txndomain.ErrInvalidMode),
		errors.Is(err, txndomain.ErrInvalidPrice),
		errors.Is(err, txndomain.ErrInvalidURL),
		errors.Is(err, txndomain.ErrInvalidInternalStatus),
		errors.Is(err, txndomain.ErrInvalidFilter),
		errors.Is(err, txndomain.ErrCompanyNotOnboarded):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, companydomain.ErrNotFound),
		errors.Is(err, txndomain.ErrNotFound),
		errors.Is(err, processor.ErrResourceMissing),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
