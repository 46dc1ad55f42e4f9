package app

import (
	"prompt_lab_backend/docs"
	"prompt_lab_backend/internal/middleware"
	"prompt_lab_backend/internal/model"
	"prompt_lab_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 课程目录允许游客预览，带令牌时返回个人进度
		public.GET("/courses", middleware.TryAuthMiddleware(), c.course.ListCourses)
		public.GET("/courses/:id", middleware.TryAuthMiddleware(), c.course.GetCourse)
	}

	// 学员路由（需登录）
	auth := router.Group("/api")
	auth.Use(middleware.AuthMiddleware(), middleware.ActivityMiddleware(repos.user))
	{
		auth.GET("/profile", c.auth.Profile)

		auth.GET("/progress", c.progress.Overview)
		auth.POST("/progress/reset", c.progress.ResetProgress)
		auth.POST("/lessons/:id/access", c.progress.AccessLesson)
		auth.POST("/lessons/:id/complete", c.progress.CompleteLesson)

		auth.GET("/lessons/:id/quiz", c.quiz.GetLessonQuiz)
		auth.POST("/lessons/:id/quiz/submit", c.quiz.SubmitQuiz)

		wizard := auth.Group("/wizard")
		{
			wizard.GET("/session", c.wizard.GetSession)
			wizard.DELETE("/session", c.wizard.Reset)
			wizard.POST("/steps", c.wizard.UpdateStep)
			wizard.POST("/goto", c.wizard.Goto)
			wizard.POST("/ai-test", c.wizard.RunAITest)
			wizard.POST("/complete", c.wizard.Complete)
			wizard.GET("/history", c.wizard.History)
		}
	}

	// 创作路由（教师/管理员）
	authoring := router.Group("/api/authoring")
	authoring.Use(
		middleware.AuthMiddleware(),
		middleware.ActivityMiddleware(repos.user),
		middleware.RoleMiddleware(model.Teacher),
	)
	{
		authoring.POST("/courses", c.authoring.CreateCourse)
		authoring.POST("/courses/generate", c.authoring.GenerateCourse)
		authoring.POST("/courses/:id/modules", c.authoring.AddModule)
		authoring.POST("/modules/:id/lessons", c.authoring.AddLesson)
		authoring.POST("/lessons/:id/slides", c.authoring.UploadSlides)
		authoring.POST("/lessons/:id/video", c.authoring.UploadVideo)
	}
}
