package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"querydesk-api/internal/apis/dtos"
	"querydesk-api/pkg/logger"
)

// CustomRecoveryMiddleware turns a panic into a 500 response envelope.
func CustomRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Recovery -> panic", logger.Ctx{
					"err":        err,
					"path":       c.Request.URL.Path,
					"request_id": c.GetString(RequestIDKey),
					"stack":      string(debug.Stack()),
				})

				errorMsg := "Internal Server Error"
				if gin.IsDebugging() {
					errorMsg = fmt.Sprintf("Internal Server Error: %v", err)
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, dtos.Response{
					Success: false,
					Error:   &errorMsg,
				})
			}
		}()
		c.Next()
	}
}
