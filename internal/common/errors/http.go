// internal/common/errors/http.go
package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPStatusMapping maps internal error codes to HTTP status codes.
var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeProjectNotFound: http.StatusNotFound,
	ErrCodeProfileNotFound: http.StatusNotFound,
	ErrCodeStatusNotFound:  http.StatusNotFound,

	ErrCodeValidationFailed: http.StatusBadRequest,
	ErrCodeInvalidRole:      http.StatusBadRequest,

	ErrCodeDatabaseConnectionFailed: http.StatusServiceUnavailable,
	ErrCodeQueryExecutionFailed:     http.StatusInternalServerError,
	ErrCodeCacheUnavailable:         http.StatusServiceUnavailable,
	ErrCodeAuthEmailLookupFailed:    http.StatusBadGateway,
	ErrCodeNotificationSendFailed:   http.StatusBadGateway,
	ErrCodeStatusUpdateFailed:       http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status for a StandardError code, defaulting
// to 500 for unmapped codes.
func HTTPStatus(code ErrorCode) int {
	if status, ok := HTTPStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Responder writes StandardErrors as JSON API responses.
type Responder struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewResponder(logger Logger) *Responder {
	return &Responder{logger: logger}
}

// Respond normalizes err, logs it, and writes the JSON error body. The
// response never includes the Details field for 5xx codes so internals
// stay out of client-visible output.
func (r *Responder) Respond(c *gin.Context, err error) {
	stdErr := AsStandardError(err)
	status := HTTPStatus(stdErr.Code)

	r.logger.Error("request failed", map[string]interface{}{
		"path":          c.FullPath(),
		"method":        c.Request.Method,
		"errorCode":     string(stdErr.Code),
		"httpStatus":    status,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})

	body := gin.H{
		"error":     stdErr.Message,
		"code":      string(stdErr.Code),
		"retryable": stdErr.Retryable,
	}
	if status < http.StatusInternalServerError && stdErr.Details != "" {
		body["details"] = stdErr.Details
	}

	c.AbortWithStatusJSON(status, body)
}
