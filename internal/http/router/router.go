package router

import (
	"github.com/gin-gonic/gin"

	"taskdeck.app/server/internal/agent"
	"taskdeck.app/server/internal/http/handler"
	"taskdeck.app/server/internal/service"
)

func SetupRoutes(router *gin.Engine, todos service.TodoService, chatAgent *agent.ChatAgent) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		todoHandler := handler.NewTodoHandler(todos)
		todosGroup := v1.Group("/todos")
		{
			todosGroup.GET("", todoHandler.List)
			todosGroup.POST("", todoHandler.Create)
			todosGroup.POST("/reorder", todoHandler.Reorder)
			todosGroup.GET("/:id", todoHandler.GetByID)
			todosGroup.PATCH("/:id", todoHandler.Update)
			todosGroup.DELETE("/:id", todoHandler.Delete)
			todosGroup.POST("/:id/star", todoHandler.Star)
			todosGroup.POST("/:id/priority", todoHandler.Priority)
			todosGroup.POST("/:id/tags", todoHandler.Tags)
		}

		chatHandler := handler.NewChatHandler(chatAgent)
		v1.POST("/chat", chatHandler.Chat)
	}
}
