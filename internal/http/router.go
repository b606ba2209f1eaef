package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mereb-hub/finance-hub/internal/auth"
	"github.com/mereb-hub/finance-hub/internal/http/middleware"
)

func NewRouter(handler *Handler, tokens *auth.Tokens, environment string) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.POST("/auth/login", handler.login)

	protected := api.Group("")
	protected.Use(middleware.Auth(tokens))
	{
		protected.POST("/auth/logout", handler.logout)

		protected.GET("/projects", handler.listProjects)
		protected.POST("/projects", handler.createProject)
		protected.POST("/projects/:id/decision", handler.decideProject)
		protected.POST("/projects/:id/milestones", handler.logMilestone)
		protected.POST("/projects/:id/complete", handler.completeProject)

		protected.GET("/users", handler.listUsers)
		protected.POST("/users", handler.createUser)
		protected.PATCH("/users/:id", handler.updateUser)

		protected.GET("/departments", handler.listDepartments)
		protected.PUT("/departments", handler.upsertDepartment)

		protected.GET("/reports/summary", handler.reportSummary)
		protected.GET("/reports/export/excel", handler.exportExcel)
		protected.GET("/reports/export/pdf", handler.exportPDF)
		protected.GET("/reports/dispatch-status", handler.dispatchStatus)
	}

	return router
}
