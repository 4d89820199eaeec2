package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hygieia/backend/internal/config"
	"github.com/hygieia/backend/internal/handlers"
	"github.com/hygieia/backend/internal/logger"
	"github.com/hygieia/backend/internal/middleware"
	"github.com/hygieia/backend/internal/repository"
	"github.com/hygieia/backend/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and listen for requests.`,
	RunE:  runServe,
}

var (
	port string
)

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load a local .env when present; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override port from flag if provided
	if port != "" {
		cfg.Server.Port = port
	}

	log := logger.NewSlogLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	logger.SetDefault(log)

	log.Info("starting hygieia API server",
		logger.String("env", cfg.Server.Env),
		logger.String("store_dir", cfg.Store.Dir),
	)

	// Open the embedded store
	db, err := repository.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	readingRepo := repository.NewReadingRepository(db)
	modelRepo := repository.NewModelRepository(db)

	// Initialize services
	unifier := service.NewDataUnifier()
	analysisService := service.NewAnalysisService(cfg.Analysis, log)
	storyService := service.NewStoryService()
	trainingService := service.NewTrainingService(modelRepo, cfg.Training, log)
	chatService := service.NewChatService(readingRepo, modelRepo, unifier, cfg.Analysis, log)

	// Initialize handlers
	dataHandler := handlers.NewDataHandler(readingRepo, unifier)
	insightsHandler := handlers.NewInsightsHandler(readingRepo, unifier, analysisService, storyService)
	trainingHandler := handlers.NewTrainingHandler(readingRepo, unifier, trainingService)
	chatHandler := handlers.NewChatHandler(chatService)

	// Set Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Logger(log))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"env":    cfg.Server.Env,
		})
	})

	// API v1 routes, all partitioned by the X-User-ID header
	v1 := router.Group("/api/v1")
	v1.Use(middleware.UserID())
	{
		v1.POST("/data/sync", dataHandler.SyncData)
		v1.GET("/dashboard", dataHandler.GetDashboard)

		v1.GET("/insights", insightsHandler.GetInsights)
		v1.GET("/insights/story", insightsHandler.GetStory)

		v1.POST("/models/train", trainingHandler.TrainModels)

		v1.POST("/chat", chatHandler.Ask)
	}

	log.Info("server listening", logger.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
