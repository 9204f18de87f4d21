package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns a Gin engine with all chat service
// routes registered.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/chat", h.Chat)
		api.GET("/questions", h.Questions)
		api.POST("/scrape", h.Scrape)
		api.GET("/stats", h.Stats)
		api.POST("/tickets", h.CreateTicket)

		user := api.Group("/user")
		{
			user.POST("/register", h.RegisterUser)
			user.GET("/history/:id", h.UserHistory)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/leads", h.Leads)
			admin.GET("/stats", h.AdminStats)
		}
	}

	return r
}

// corsMiddleware allows browser clients served from another origin to call
// the API.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
