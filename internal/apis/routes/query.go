package routes

import (
	"github.com/gin-gonic/gin"

	"querydesk-api/internal/apis/handlers"
)

func SetupQueryRoutes(router *gin.Engine, queryHandler *handlers.QueryHandler, auth gin.HandlerFunc) {
	databases := router.Group("/api/databases")
	databases.Use(auth)
	{
		databases.POST("/:id/execute", queryHandler.Execute)
		databases.GET("/:id/history", queryHandler.History)
		databases.GET("/:id/executions", queryHandler.Executions)
	}

	queries := router.Group("/api/queries")
	queries.Use(auth)
	{
		queries.GET("/:id/rows", queryHandler.Rows)
		queries.POST("/:id/export", queryHandler.Export)
	}

	sql := router.Group("/api/sql")
	sql.Use(auth)
	{
		sql.POST("/split", queryHandler.Split)
	}
}
