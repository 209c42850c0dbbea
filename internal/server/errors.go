package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/churnlens/internal/churn"
	"github.com/smallbiznis/churnlens/internal/clv"
	customerdomain "github.com/smallbiznis/churnlens/internal/customer/domain"
	dashboarddomain "github.com/smallbiznis/churnlens/internal/dashboard/domain"
	"github.com/smallbiznis/churnlens/internal/features"
	"github.com/smallbiznis/churnlens/internal/ratelimit"
	scoringdomain "github.com/smallbiznis/churnlens/internal/scoring/domain"
	"github.com/smallbiznis/churnlens/pkg/db/pagination"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, validationPayload(vErr.Errors...)
	}

	var fieldErr *features.ValidationError
	if errors.As(err, &fieldErr) {
		return http.StatusBadRequest, validationPayload(ValidationError{
			Field:   fieldErr.Field,
			Code:    "invalid_" + fieldErr.Field,
			Message: fieldErr.Error(),
		})
	}

	var churnErr *churn.ModelInputError
	if errors.As(err, &churnErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "model_input_error",
			Message: churnErr.Error(),
		}
	}

	var clvErr *clv.ModelInputError
	if errors.As(err, &clvErr) {
		payload := errorPayload{
			Type:    "model_input_error",
			Message: clvErr.Error(),
		}
		if clvErr.Field != "" {
			payload.Errors = []ValidationError{{
				Field:   clvErr.Field,
				Code:    "invalid_" + clvErr.Field,
				Message: clvErr.Reason,
			}}
		}
		return http.StatusBadRequest, payload
	}

	if code, field, ok := validationSentinel(err); ok {
		return http.StatusBadRequest, validationPayload(ValidationError{
			Field:   field,
			Code:    code,
			Message: "invalid " + field,
		})
	}

	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ratelimit.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, scoringdomain.ErrModelsUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func validationPayload(errs ...ValidationError) errorPayload {
	return errorPayload{
		Type:    "validation_error",
		Message: "validation error",
		Errors:  errs,
	}
}

// validationSentinel maps domain sentinel errors to a field name.
func validationSentinel(err error) (code, field string, ok bool) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request", "request", true
	case errors.Is(err, customerdomain.ErrInvalidID):
		return "invalid_id", "id", true
	case errors.Is(err, dashboarddomain.ErrInvalidSegment):
		return "invalid_segment", "segment", true
	case errors.Is(err, dashboarddomain.ErrInvalidRisk):
		return "invalid_risk", "risk", true
	case errors.Is(err, pagination.ErrInvalidPageToken):
		return "invalid_page_token", "page_token", true
	default:
		return "", "", false
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// classifyErrorForLog reports the error type and code written to the request
// log.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
