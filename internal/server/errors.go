package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ngoinfo/copilot/internal/auth"
	exportdomain "github.com/ngoinfo/copilot/internal/export/domain"
	fundingdomain "github.com/ngoinfo/copilot/internal/funding/domain"
	"github.com/ngoinfo/copilot/internal/generator"
	obscontext "github.com/ngoinfo/copilot/internal/observability/context"
	profiledomain "github.com/ngoinfo/copilot/internal/profile/domain"
	proposaldomain "github.com/ngoinfo/copilot/internal/proposal/domain"
	"gorm.io/gorm"
)

// Error envelope codes. Every error response carries exactly one of these.
const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidFormat     = "INVALID_FORMAT"
	CodeConflict          = "CONFLICT"
	CodeGenerationFailed  = "GENERATION_FAILED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// errInvalidBody marks malformed request payloads caught at binding time.
var errInvalidBody = errors.New("invalid_request_body")

type errorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// ErrorHandlingMiddleware converts the last gin error into the error
// envelope. Handlers never write error bodies themselves.
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
		payload.RequestID = obscontext.RequestIDFromContext(c.Request.Context())
		c.AbortWithStatusJSON(status, payload)
	}
}

// AbortWithError records the error for the error handling middleware and
// stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorResponse) {
	var rateErr *proposaldomain.RateLimitError
	if errors.As(err, &rateErr) {
		return http.StatusTooManyRequests, errorResponse{
			Code:    CodeRateLimitExceeded,
			Message: rateErr.Error(),
			Details: map[string]any{
				"action": rateErr.Action,
				"limit":  rateErr.Limit,
			},
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusUnprocessableEntity, errorResponse{
			Code:    CodeValidationError,
			Message: "request validation failed",
		}
	case errors.Is(err, exportdomain.ErrUnsupportedFormat):
		return http.StatusBadRequest, errorResponse{
			Code:    CodeInvalidFormat,
			Message: "unsupported export format",
		}
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorResponse{
			Code:    CodeUnauthorized,
			Message: "authentication required",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorResponse{
			Code:    CodeNotFound,
			Message: "resource not found",
		}
	case errors.Is(err, profiledomain.ErrAlreadyExists):
		return http.StatusConflict, errorResponse{
			Code:    CodeConflict,
			Message: "profile already exists",
		}
	case errors.Is(err, generator.ErrGeneration):
		return http.StatusBadGateway, errorResponse{
			Code:    CodeGenerationFailed,
			Message: "proposal generation failed, please retry",
		}
	default:
		return http.StatusInternalServerError, errorResponse{
			Code:    CodeInternalError,
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, errInvalidBody),
		errors.Is(err, proposaldomain.ErrInvalidInput),
		errors.Is(err, proposaldomain.ErrInvalidRating),
		errors.Is(err, proposaldomain.ErrInvalidStatus),
		errors.Is(err, profiledomain.ErrInvalidInput):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingSubject):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, proposaldomain.ErrNotFound),
		errors.Is(err, proposaldomain.ErrProfileRequired),
		errors.Is(err, proposaldomain.ErrOpportunityNotFound),
		errors.Is(err, profiledomain.ErrNotFound),
		errors.Is(err, fundingdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog feeds the request logger's error fields.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status == http.StatusUnprocessableEntity:
		return "validation_error", payload.Code
	case status == http.StatusTooManyRequests:
		return "rate_limited", payload.Code
	case status == http.StatusUnauthorized:
		return "unauthorized", payload.Code
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Code
	default:
		return "client_error", payload.Code
	}
}
