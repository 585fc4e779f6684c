package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"starkride/internal/repository"
	"starkride/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrFareNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidRideKey),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidOtp),
		errors.Is(err, service.ErrOutOfRange),
		errors.Is(err, service.ErrBelowMinimumRecharge):
		return http.StatusBadRequest

	// Signature failures
	case errors.Is(err, service.ErrInvalidSignature):
		return http.StatusUnauthorized

	// Acting on someone else's resource
	case errors.Is(err, service.ErrNotRideOwner),
		errors.Is(err, service.ErrLockedByOther):
		return http.StatusForbidden

	// Wallet cannot cover the operation
	case errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrLowBalance):
		return http.StatusPaymentRequired

	// Conflict errors
	case errors.Is(err, service.ErrAlreadyAssigned),
		errors.Is(err, service.ErrActiveRequest),
		errors.Is(err, service.ErrActiveRide),
		errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrRideAlreadyStarted),
		errors.Is(err, service.ErrRideNotCancellable),
		errors.Is(err, service.ErrAlreadyRated),
		errors.Is(err, service.ErrFareExists):
		return http.StatusConflict

	// Claim window closed
	case errors.Is(err, service.ErrRequestExpired):
		return http.StatusGone

	// Throttled
	case errors.Is(err, service.ErrRechargeCooldown):
		return http.StatusTooManyRequests

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// callerID returns the authenticated account id, rider or driver.
func callerID(c *gin.Context) string {
	if id := c.GetString("driver_id"); id != "" {
		return id
	}
	return c.GetString("user_id")
}
