package response

import (
	"github.com/gin-gonic/gin"
)

// Error codes shared across domains. Domain specific codes live in each model package.
const (
	CodeBadRequest   = "BadRequest"
	CodeValidation   = "ValidationError"
	CodeUnauthorized = "Unauthorized"
	CodeForbidden    = "Forbidden"
	CodeNotFound     = "NotFound"
	CodeConflict     = "Conflict"
	CodeInternal     = "InternalError"
)

// Error is the body of every failed request
type Error struct {
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// Success writes data as a flat JSON body
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Error{Message: message, Code: code})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, Error{Message: message, Code: code, Details: details})
}

// Common error responses
func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, 400, CodeBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, 401, CodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, 403, CodeForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, 404, CodeNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	ErrorResponse(c, 409, CodeConflict, message)
}

// InternalServerError never carries detail, the cause belongs in the log
func InternalServerError(c *gin.Context) {
	ErrorResponse(c, 500, CodeInternal, "Internal server error")
}
