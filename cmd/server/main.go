package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-engine/internal/cache"
	"github.com/SAP-F-2025/quiz-engine/internal/config"
	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/handlers"
	"github.com/SAP-F-2025/quiz-engine/internal/monitoring"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-engine/internal/scorm"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
	"github.com/SAP-F-2025/quiz-engine/internal/webhook"
	"github.com/SAP-F-2025/quiz-engine/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment)
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := pkg.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// The quiz cache is optional; without redis every load hits postgres.
	var quizCache *cache.QuizCache
	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, quiz cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		quizCache = cache.NewQuizCache(cache.NewRedisCache(redisClient, slogger), cfg.QuizCacheTTL)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		publisher = events.NewMockEventPublisher(slogger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	}()

	v := validator.New()
	quizRepo := postgres.NewQuizPostgreSQL(db)
	resultRepo := postgres.NewResultPostgreSQL(db)

	quizService := services.NewQuizService(quizRepo, resultRepo, quizCache, publisher, v, slogger)
	playerService := services.NewPlayerService(quizService, resultRepo, publisher, services.PlayerConfig{
		SessionTTL:   cfg.SessionTTL,
		ScormPreview: cfg.ScormPreview,
		Webhook:      webhook.NewClient(webhook.WithTimeout(cfg.WebhookTimeout), webhook.WithLogger(slogger)),
	}, slogger)
	exportService := services.NewExportService(slogger, playerAssets(cfg, logger),
		services.WithLauncher(scorm.LauncherOptions{PlayerScript: cfg.PlayerBundlePath}))
	serviceManager := services.NewServiceManager(quizService, playerService, exportService)

	monitoring.Init()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		utils.LoggerMiddleware(logger),
		utils.ContextLogger(logger),
		monitoring.MetricsMiddleware(),
		handlers.Secure(),
	)

	handlers.NewHandlerManager(serviceManager, v, logger, handlers.RouteOptions{
		Auth:      handlers.NewCasdoorParser(cfg.Casdoor),
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	// Closing sessions ends open event streams before the server waits on them.
	serviceManager.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exiting")
}

// playerAssets loads the player bundle shipped in SCORM packages. Without
// one, packages still reference the bundle path and the LMS must serve it.
func playerAssets(cfg *config.Config, logger utils.Logger) map[string][]byte {
	if cfg.PlayerBundleFile == "" {
		logger.Warn("PLAYER_BUNDLE_FILE not set, SCORM packages ship without a player bundle",
			"bundle_path", cfg.PlayerBundlePath)
		return nil
	}
	bundle, err := os.ReadFile(cfg.PlayerBundleFile)
	if err != nil {
		log.Fatalf("Failed to read player bundle: %v", err)
	}
	return map[string][]byte{cfg.PlayerBundlePath: bundle}
}
