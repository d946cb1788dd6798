package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/catalog-api/backend/internal/logger"
	"github.com/catalog-api/backend/internal/model"
)

const (
	statusFail    = "fail"
	statusError   = "error"
	statusSuccess = "success"

	msgInternal = "Something went wrong"
)

// AppError is an error with a client-facing message and HTTP status.
type AppError struct {
	StatusCode int
	Message    string
}

func NewAppError(statusCode int, message string) *AppError {
	return &AppError{StatusCode: statusCode, Message: message}
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Status is "fail" for 4xx and "error" otherwise.
func (e *AppError) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return statusFail
	}
	return statusError
}

// abortWithError records err for ErrorMiddleware and stops the chain.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func writeFail(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, model.StatusResponse{Status: statusFail, Message: message})
}

// ErrorMiddleware renders the last error attached to the context as
// {status, message}. Errors that are not AppErrors become a logged 500.
func ErrorMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *AppError
		if errors.As(err, &appErr) {
			if appErr.StatusCode >= http.StatusInternalServerError {
				log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "status", appErr.StatusCode, "error", appErr.Message)
			}
			c.JSON(appErr.StatusCode, model.StatusResponse{Status: appErr.Status(), Message: appErr.Message})
			return
		}

		log.Error("unhandled error", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, model.StatusResponse{Status: statusError, Message: msgInternal})
	}
}

// NotFound answers routes that match nothing.
func NotFound(c *gin.Context) {
	writeFail(c, http.StatusNotFound, fmt.Sprintf("Can't find %s on this server!", c.Request.URL.RequestURI()))
}

// Recovery turns a panic into the standard 500 body.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered", "method", c.Request.Method, "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, model.StatusResponse{Status: statusError, Message: msgInternal})
	})
}
