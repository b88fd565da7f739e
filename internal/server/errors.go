package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/railzwaylabs/seatbill/internal/audit/domain"
	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
	contractdomain "github.com/railzwaylabs/seatbill/internal/contract/domain"
	pipelinedomain "github.com/railzwaylabs/seatbill/internal/pipeline/domain"
	sourcedomain "github.com/railzwaylabs/seatbill/internal/source/domain"
)

// APIError is the error body returned to clients.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Code }

var (
	ErrInvalidRequest = &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request"}
	ErrInternal       = &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
)

func invalidRequestError(err error) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrInvalidRequest.Code, Message: err.Error()}
}

// AbortWithError writes the error envelope for err and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	apiErr := toAPIError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
}

func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	badRequest := func(code string) *APIError {
		return &APIError{Status: http.StatusBadRequest, Code: code, Message: err.Error()}
	}
	switch {
	case errors.Is(err, billingcycledomain.ErrMalformedPeriod):
		return badRequest("malformed_period")
	case errors.Is(err, contractdomain.ErrInvalidCustomer), errors.Is(err, sourcedomain.ErrInvalidCustomer):
		return badRequest("invalid_customer")
	case errors.Is(err, contractdomain.ErrInvalidContract):
		return badRequest("invalid_contract")
	case errors.Is(err, auditdomain.ErrUnsupportedFormat):
		return badRequest("unsupported_export_format")
	case errors.Is(err, auditdomain.ErrInvalidRange):
		return badRequest("invalid_export_range")
	case errors.Is(err, pipelinedomain.ErrBatchInProgress):
		return &APIError{Status: http.StatusConflict, Code: "batch_in_progress", Message: err.Error()}
	default:
		return ErrInternal
	}
}
