package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
  "github.com/velebitsec/compliance-backend/internal/handlers"
  "github.com/velebitsec/compliance-backend/internal/middleware"
)

type RouterConfig struct {
  ServiceName       string
  AuthMiddleware    *middleware.AuthMiddleware
  AssessmentHandler *handlers.AssessmentHandler
  AnswerHandler     *handlers.AnswerHandler
  ScoreHandler      *handlers.ScoreHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()
  router.Use(otelgin.Middleware(cfg.ServiceName))

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)

// ===============
// || Protected ||
// ===============
  api := router.Group("/api")
  api.Use(cfg.AuthMiddleware.RequireAuth())
  // Assessments
  api.POST("/assessments", cfg.AssessmentHandler.Create)
  api.GET("/assessments", cfg.AssessmentHandler.List)
  // Answers
  api.PUT("/assessments/:id/answers", cfg.AnswerHandler.Save)
  api.GET("/assessments/:id/answers", cfg.AnswerHandler.List)
  // Scoring
  api.GET("/assessments/:id/completion", cfg.ScoreHandler.GetCompletion)
  api.POST("/assessments/:id/recompute", cfg.ScoreHandler.Recompute)
  api.GET("/assessments/:id/scores", cfg.ScoreHandler.GetSnapshot)
  api.POST("/scores/recompute", cfg.ScoreHandler.RecomputeAll)

  return router
}
