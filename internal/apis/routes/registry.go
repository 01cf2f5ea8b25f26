package routes

import (
	"github.com/gin-gonic/gin"

	"querydesk-api/internal/apis/handlers"
)

func SetupRegistryRoutes(router *gin.Engine, registryHandler *handlers.RegistryHandler, auth gin.HandlerFunc) {
	databases := router.Group("/api/databases")
	databases.Use(auth)
	{
		databases.POST("", registryHandler.CreateDatabase)
		databases.GET("", registryHandler.ListDatabases)
		databases.GET("/:id", registryHandler.GetDatabase)
		databases.PATCH("/:id", registryHandler.UpdateDatabase)
		databases.DELETE("/:id", registryHandler.DeleteDatabase)
	}

	servers := router.Group("/api/servers")
	servers.Use(auth)
	{
		servers.POST("", registryHandler.CreateServer)
		servers.GET("", registryHandler.ListServers)
		servers.GET("/:id", registryHandler.GetServer)
		servers.PATCH("/:id", registryHandler.UpdateServer)
		servers.DELETE("/:id", registryHandler.DeleteServer)
	}
}
