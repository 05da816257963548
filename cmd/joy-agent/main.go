package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joylabs/joy-agent/internal/backend"
	"github.com/joylabs/joy-agent/internal/config"
	"github.com/joylabs/joy-agent/internal/convlog"
	"github.com/joylabs/joy-agent/internal/llm"
	"github.com/joylabs/joy-agent/internal/profile"
	"github.com/joylabs/joy-agent/internal/rtc"
	"github.com/joylabs/joy-agent/internal/worker"
)

// AppState holds all application services
type AppState struct {
	DB            *bun.DB
	Logger        *zap.Logger
	Backend       *backend.Client
	Chat          llm.ChatService
	Profiles      profile.ProfileService
	Conversations convlog.ConversationService
}

func main() {
	// Environment first so config env overrides see .env values.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	config.Load()

	logger := initLogger()
	defer logger.Sync() //nolint:errcheck

	as, err := newAppState(logger)
	if err != nil {
		logger.Fatal("Failed to initialize application state", zap.Error(err))
	}
	defer as.DB.Close()

	// Health endpoint for the deployment environment.
	healthServer := startHealthServer(as)

	rtConfig := config.Realtime()
	ctx, cancel := context.WithCancel(context.Background())
	transport, err := rtc.Connect(ctx, rtConfig.URL, rtConfig.APIKey, rtConfig.APISecret, logger)
	if err != nil {
		cancel()
		logger.Fatal("Failed to connect to realtime gateway",
			zap.String("url", rtConfig.URL),
			zap.Error(err))
	}

	memConfig := config.Memory()
	agentWorker := worker.New(transport, as.Chat, as.Profiles, as.Conversations, as.Backend,
		worker.Options{
			FlushThreshold:  memConfig.FlushThreshold,
			EnableRetrieval: memConfig.EnableRetrieval,
		}, logger)

	done := make(chan error, 1)
	go func() {
		done <- agentWorker.Run(ctx)
	}()

	logger.Info("Agent worker started",
		zap.String("realtime_url", rtConfig.URL),
		zap.String("llm_provider", config.LLM().Provider))

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-signalCh:
		logger.Info("Shutting down...")
		cancel()
		<-done
	case err := <-done:
		cancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Worker stopped with error", zap.Error(err))
		}
	}

	_ = transport.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during health server shutdown", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// newAppState creates and initializes the application state
func newAppState(logger *zap.Logger) (*AppState, error) {
	pgConfig := config.Postgres()
	logger.Info("Database configuration",
		zap.String("host", pgConfig.Host),
		zap.Int("port", pgConfig.Port),
		zap.String("database", pgConfig.Database))

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgConfig.DSN())))
	sqldb.SetMaxOpenConns(pgConfig.MaxOpenConnections)
	sqldb.SetMaxIdleConns(pgConfig.MaxOpenConnections / 2)
	sqldb.SetConnMaxLifetime(time.Hour)
	db := bun.NewDB(sqldb, pgdialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	llmConfig := config.LLM()
	serviceConfig := llm.ServiceConfig{
		Provider:           llmConfig.Provider,
		APIKey:             llmConfig.APIKey,
		Model:              llmConfig.Model,
		BaseURL:            llmConfig.BaseURL,
		EmbeddingModel:     llmConfig.EmbeddingModel,
		EmbeddingDimension: llmConfig.EmbeddingDimension,
	}
	chat, err := llm.NewChatService(serviceConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat service: %w", err)
	}
	embedding, err := llm.NewEmbeddingService(serviceConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}

	backendConfig := config.Backend()
	memConfig := config.Memory()

	return &AppState{
		DB:      db,
		Logger:  logger,
		Backend: backend.NewClient(backendConfig.URL, backendConfig.AuthToken, logger),
		Chat:    chat,
		Profiles: profile.NewService(
			profile.NewPostgresStore(db), logger),
		Conversations: convlog.NewService(
			convlog.NewPostgresStore(db), embedding,
			memConfig.MatchThreshold, memConfig.MatchCount, logger),
	}, nil
}

func initLogger() *zap.Logger {
	logConfig := config.Logger()

	var zapConfig zap.Config
	if logConfig.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	switch logConfig.Level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	return logger
}

func startHealthServer(as *AppState) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(cors.Default())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := as.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"timestamp": time.Now().Format(time.RFC3339),
				"error":     err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"services": gin.H{
				"database": "healthy",
			},
		})
	})

	addr := fmt.Sprintf("%s:%d", config.Http().Host, config.Http().Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			as.Logger.Error("Health server failed", zap.Error(err))
		}
	}()

	return server
}
