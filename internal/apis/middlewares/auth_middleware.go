package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"querydesk-api/internal/apis/dtos"
	"querydesk-api/internal/utils"
	"querydesk-api/pkg/logger"
)

// AuthMiddleware requires a valid bearer token and stores its principal under
// "userID" for audit columns.
func AuthMiddleware(jwtService utils.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		userID, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			logger.Debug("AuthMiddleware -> token rejected", logger.Ctx{"err": err, "path": c.FullPath()})
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set("userID", *userID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, errorMsg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dtos.Response{
		Success: false,
		Error:   &errorMsg,
	})
}
