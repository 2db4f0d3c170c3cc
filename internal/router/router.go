package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/algo-rangers/support-service/api"
	"github.com/algo-rangers/support-service/internal/handler"
)

func New(chat *handler.ChatHandler, tickets *handler.TicketHandler, history *handler.HistoryHandler) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", handler.Health)
	r.GET("/ready", handler.Ready)
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/") })
	r.GET("/swagger/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = "/swagger/index.html"
			c.Request.RequestURI = "/swagger/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/chat", chat.Message)
		v1.POST("/chat/reset", chat.Reset)
		v1.GET("/tickets/:id", tickets.Get)
		v1.GET("/tickets", tickets.List)
		v1.PUT("/tickets/:id/status", tickets.UpdateStatus)
		v1.GET("/conversations", history.Conversations)
		v1.GET("/stats", history.Stats)
	}

	return r
}
