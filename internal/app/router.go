package app

import (
	"learnsphere_backend/docs"
	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/middleware"
	"learnsphere_backend/internal/model"
	"learnsphere_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerInstructorRoutes(authGroup, c)
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 证书核验不需要登录，第三方凭证书编号即可查验
		public.GET("/certificates/verify/:certificateId", c.certificate.VerifyCertificate)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	// 课程目录
	rg.GET("/courses", c.course.ListCourses)
	rg.GET("/courses/:courseId", c.course.GetCourse)

	// 学习进度
	rg.GET("/progress/:courseId", c.progress.GetProgress)
	rg.POST("/progress/:courseId/lectures/:lectureId/videos/:videoId", c.progress.MarkVideoComplete)
	rg.POST("/progress/:courseId/lectures/:lectureId/videos/:videoId/watch", c.progress.ReportVideoWatch)
	rg.GET("/progress/:courseId/lectures/:lectureId/videos/:videoId/access", c.progress.CheckVideoAccess)
	rg.POST("/progress/:courseId/complete", c.progress.MarkCourseComplete)
	rg.POST("/progress/:courseId/incomplete", c.progress.MarkCourseIncomplete)

	// 课程测验（学员视图）
	rg.GET("/courses/:courseId/quiz", c.quiz.GetQuizForLearner)
	rg.GET("/courses/:courseId/quiz/eligibility", c.quiz.CheckEligibility)
	rg.POST("/courses/:courseId/quiz/attempts", c.quiz.SubmitAttempt)
	rg.GET("/courses/:courseId/quiz/attempts", c.quiz.ListAttempts)

	// 我的证书
	rg.GET("/certificates", c.certificate.ListMyCertificates)
	rg.GET("/certificates/:certificateId", c.certificate.GetCertificate)
	rg.POST("/certificates/:certificateId/download", c.certificate.DownloadCertificate)
}

func (a *App) registerInstructorRoutes(rg *gin.RouterGroup, c *controllers) {
	instructor := rg.Group("/instructor")
	instructor.Use(middleware.RoleMiddleware(model.Instructor))
	{
		instructor.POST("/courses", c.course.CreateCourse)
		instructor.GET("/courses", c.course.ListInstructorCourses)
		instructor.POST("/courses/:courseId/videos/upload", c.course.UploadVideo)

		instructor.POST("/quizzes", c.quiz.CreateQuiz)
		instructor.GET("/quizzes", c.quiz.ListInstructorQuizzes)
		instructor.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
		instructor.DELETE("/quizzes/:id", c.quiz.DeactivateQuiz)
	}
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/certificates/:certificateId/revoke", c.certificate.RevokeCertificate)
	}
}
