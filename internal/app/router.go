package app

import (
	"learnpath_backend/docs"
	"learnpath_backend/internal/config"
	"learnpath_backend/internal/middleware"
	"learnpath_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		// 规划与测验：可选认证，登录用户的路径会落到其名下
		plan := api.Group("/plan")
		plan.Use(middleware.TryAuthMiddleware(cfg))
		{
			plan.POST("", c.plan.CreatePlan)
			plan.GET("/:id", c.plan.GetPlan)
			plan.POST("/:id/replan", c.plan.Replan)
		}

		quiz := api.Group("/quiz")
		quiz.Use(middleware.TryAuthMiddleware(cfg))
		{
			quiz.POST("/generate", c.quiz.Generate)
			quiz.POST("/submit", c.quiz.Submit)
		}

		// 个人视图：强制认证
		user := api.Group("/user")
		user.Use(middleware.AuthMiddleware(cfg))
		{
			user.GET("/plans", c.plan.ListUserPlans)
		}
	}
}
