package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentalbot/internal/config"
	"rentalbot/internal/handler"
	"rentalbot/internal/service"
	"rentalbot/internal/utils"

	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Print version info
	log.Printf("Property Rental Assistant")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	utils.SetLogLevel(cfg.Logging.Level)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	log.Printf("✅ OpenAI client configured")
	log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
	log.Printf("   - Chat model: %s", cfg.OpenAI.ChatModel)
	log.Printf("   - Embedding model: %s", cfg.OpenAI.EmbeddingModel)
	log.Printf("   - Chat Temperature: %.2f", cfg.OpenAI.ChatTemperature)
	log.Printf("   - Retrieval backend: %s", cfg.Retrieval.Backend)
	log.Printf("   - Memory backend: %s", cfg.Memory.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := service.Bootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize assistant: %v", err)
	}
	defer rt.Close()

	log.Println("✅ Services initialized")

	router := handler.NewRouter(
		handler.NewChatHandler(rt.Sessions),
		handler.NewPropertyHandler(rt.Catalog),
		cfg.Server.AllowedOrigins,
		handler.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit},
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API: http://localhost:%d/api/v1", cfg.Server.Port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}
	log.Println("✅ Server stopped")
}
