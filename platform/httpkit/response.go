// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"net/http"

	"postcode_lookup/platform/apperr"

	"github.com/gin-gonic/gin"
)

// Envelope is the lookup service reply format: {success, data?, error?}.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK sends a 200 OK envelope carrying data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Fail sends a failure envelope with the given status code and message.
func Fail(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, Envelope{Success: false, Error: message, Details: details})
}

// HandleError maps domain errors to failure envelopes.
// If the error carries a typed *apperr.Error, its Kind decides the status code.
// Otherwise it is reported as an internal error without leaking the cause.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		Fail(c, domainErr.HTTPStatus(), domainErr.Message, domainErr.Details)
		return true
	}

	Fail(c, http.StatusInternalServerError, "internal error", nil)
	return true
}
