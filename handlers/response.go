package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripplanner/middleware"
)

// Response is the envelope every JSON route answers with.
type Response struct {
	OK      bool                          `json:"ok"`
	Data    any                           `json:"data,omitempty"`
	Source  string                        `json:"source,omitempty"`
	Warning string                        `json:"warning,omitempty"`
	Error   string                        `json:"error,omitempty"`
	Details []middleware.ValidationDetail `json:"details,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{OK: true, Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{OK: true, Data: data})
}

// OKWithSource answers 200 and labels where the data came from.
func OKWithSource(c *gin.Context, data any, source, warning string) {
	c.JSON(http.StatusOK, Response{OK: true, Data: data, Source: source, Warning: warning})
}

func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{OK: false, Error: msg})
}

// ValidationFailed answers 400 with one detail per rejected field.
func ValidationFailed(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		OK:      false,
		Error:   "request validation failed",
		Details: middleware.FormatValidationErrors(err),
	})
}

func invalidField(c *gin.Context, field, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		OK:      false,
		Error:   "request validation failed",
		Details: []middleware.ValidationDetail{{Field: field, Message: msg}},
	})
}
