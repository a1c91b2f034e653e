package main

import (
  "context"
  "fmt"
  "os"
  "time"
  "github.com/velebitsec/compliance-backend/internal/logger"
  "github.com/velebitsec/compliance-backend/internal/utils"
  "github.com/velebitsec/compliance-backend/internal/db"
  "github.com/velebitsec/compliance-backend/internal/clients/redis"
  "github.com/velebitsec/compliance-backend/internal/observability"
  "github.com/velebitsec/compliance-backend/internal/repos"
  "github.com/velebitsec/compliance-backend/internal/services"
  "github.com/velebitsec/compliance-backend/internal/handlers"
  "github.com/velebitsec/compliance-backend/internal/middleware"
  "github.com/velebitsec/compliance-backend/internal/server"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  serviceName := utils.GetEnv("SERVICE_NAME", "compliance-backend", log)
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  scoringConfigPath := utils.GetEnv("SCORING_CONFIG_PATH", "", log)

  // Tracing
  shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
    ServiceName: serviceName,
    Environment: utils.GetEnv("DEPLOY_ENV", "development", log),
    Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
  })
  if shutdownOTel != nil {
    defer func() {
      ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
      defer cancel()
      _ = shutdownOTel(ctx)
    }()
  }

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Scoring config
  scoringConfig, err := services.LoadScoringConfig(scoringConfigPath, log)
  if err != nil {
    log.Error("Could not load scoring config", "error", err)
    os.Exit(1)
  }

  // Repos
  log.Info("Setting up Repos from main...")
  catalogRepo := repos.NewCatalogRepo(thePG, log)
  assessmentRepo := repos.NewAssessmentRepo(thePG, log)
  answerRepo := repos.NewAnswerRepo(thePG, log)
  scoreRepo := repos.NewScoreRepo(thePG, log)

  // Completion cache (best effort)
  var completionCache services.CompletionCache
  if cache, err := redis.NewCompletionCache(log); err != nil {
    log.Warn("Completion cache disabled", "error", err)
  } else {
    completionCache = cache
  }

  // Services
  log.Info("Setting up Services from main...")
  assessmentService := services.NewAssessmentService(thePG, log, assessmentRepo)
  answerService := services.NewAnswerService(thePG, log, assessmentRepo, catalogRepo, answerRepo, completionCache)
  completionService := services.NewCompletionService(thePG, log, assessmentRepo, catalogRepo, answerRepo, completionCache)
  aggregationService := services.NewAggregationService(thePG, log, assessmentRepo, catalogRepo, answerRepo, scoreRepo, scoringConfig)
  snapshotService := services.NewSnapshotService(thePG, log, scoreRepo)

  // Handlers
  log.Info("Setting up handlers from main...")
  assessmentHandler := handlers.NewAssessmentHandler(assessmentService)
  answerHandler := handlers.NewAnswerHandler(answerService, assessmentService)
  recomputeParallelism := utils.GetEnvAsInt("RECOMPUTE_PARALLELISM", 4, log)
  scoreHandler := handlers.NewScoreHandler(aggregationService, snapshotService, completionService, assessmentService, recomputeParallelism)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, jwtSecretKey)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    ServiceName:       serviceName,
    AuthMiddleware:    authMiddleware,
    AssessmentHandler: assessmentHandler,
    AnswerHandler:     answerHandler,
    ScoreHandler:      scoreHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
