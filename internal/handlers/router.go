package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-engine/internal/monitoring"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
)

// RouteOptions configures the middleware around the API groups.
type RouteOptions struct {
	// Auth guards authoring routes; nil leaves them open.
	Auth TokenParser
	// RateLimit per client IP on session routes; zero disables it.
	RateLimit float64
	RateBurst int
}

type HandlerManager struct {
	quizHandler    *QuizHandler
	sessionHandler *SessionHandler
	options        RouteOptions
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	options RouteOptions,
) *HandlerManager {
	return &HandlerManager{
		quizHandler: NewQuizHandler(serviceManager.Quiz(), serviceManager.Export(), validator, logger),
		sessionHandler: NewSessionHandler(
			serviceManager.Player(), serviceManager.Quiz(), serviceManager.Export(), validator, logger),
		options: options,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", monitoring.PrometheusHandler())

	v1 := router.Group("/api/v1")
	{
		// Authoring routes
		quizzes := v1.Group("/quizzes", AuthMiddleware(hm.options.Auth, true))
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.POST("/validate", hm.quizHandler.ValidateQuiz)
			quizzes.POST("/import", hm.quizHandler.ImportQuiz)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.PUT("/:id", hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", hm.quizHandler.DeleteQuiz)
			quizzes.GET("/:id/scorm-package", hm.quizHandler.DownloadScormPackage)
			quizzes.GET("/:id/results", hm.quizHandler.ListResults)
			quizzes.GET("/:id/results/stats", hm.quizHandler.GetResultStats)
		}

		// Player routes, token optional
		sessionMiddleware := []gin.HandlerFunc{AuthMiddleware(hm.options.Auth, false)}
		if hm.options.RateLimit > 0 {
			sessionMiddleware = append(sessionMiddleware, RateLimiter(hm.options.RateLimit, hm.options.RateBurst))
		}
		sessions := v1.Group("/sessions", sessionMiddleware...)
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.DeleteSession)
			sessions.GET("/:id/question", hm.sessionHandler.GetCurrentQuestion)
			sessions.POST("/:id/answers", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/next", hm.sessionHandler.NextQuestion)
			sessions.POST("/:id/previous", hm.sessionHandler.PreviousQuestion)
			sessions.POST("/:id/goto", hm.sessionHandler.GoToQuestion)
			sessions.POST("/:id/hotspot", hm.sessionHandler.ResolveHotspot)
			sessions.POST("/:id/finish", hm.sessionHandler.FinishSession)
			sessions.GET("/:id/result", hm.sessionHandler.GetResult)
			sessions.GET("/:id/export", hm.sessionHandler.ExportResult)
			sessions.GET("/:id/events", hm.sessionHandler.StreamEvents)
			sessions.GET("/:id/scorm", hm.sessionHandler.GetScormData)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quiz-engine",
	})
}
