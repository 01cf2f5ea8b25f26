package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"querydesk-api/internal/apis/dtos"
	"querydesk-api/internal/apis/handlers"
	"querydesk-api/internal/apis/middlewares"
	"querydesk-api/internal/di"
	"querydesk-api/internal/utils"
	"querydesk-api/pkg/logger"
)

// SetupDefaultRoutes mounts every route with handlers taken from the
// container.
func SetupDefaultRoutes(router *gin.Engine) {
	registryHandler, err := di.GetRegistryHandler()
	if err != nil {
		logger.Fatal("Routes -> failed to get registry handler", logger.Ctx{"err": err})
	}
	queryHandler, err := di.GetQueryHandler()
	if err != nil {
		logger.Fatal("Routes -> failed to get query handler", logger.Ctx{"err": err})
	}
	jwtService, err := di.GetJWTService()
	if err != nil {
		logger.Fatal("Routes -> failed to get jwt service", logger.Ctx{"err": err})
	}

	RegisterRoutes(router, registryHandler, queryHandler, jwtService)
}

func RegisterRoutes(router *gin.Engine, registryHandler *handlers.RegistryHandler, queryHandler *handlers.QueryHandler, jwtService utils.JWTService) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dtos.Response{
			Success: true,
			Data:    "Server is healthy!",
		})
	})

	auth := middlewares.AuthMiddleware(jwtService)
	SetupRegistryRoutes(router, registryHandler, auth)
	SetupQueryRoutes(router, queryHandler, auth)
}
