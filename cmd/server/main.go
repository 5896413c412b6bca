package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mzalewski/pokoje/internal/chat"
	"github.com/mzalewski/pokoje/internal/config"
	httpHandler "github.com/mzalewski/pokoje/internal/delivery/http"
	"github.com/mzalewski/pokoje/internal/delivery/ws"
	"github.com/mzalewski/pokoje/internal/middleware"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()

	if cfg.LogLevel == "silent" || cfg.LogLevel == "off" {
		log.SetOutput(io.Discard)
	}

	// Wire the transport hub and the chat dispatcher together
	hub := ws.NewHub(cfg.MaxMessageSize)
	dispatcher := chat.NewDispatcher(hub)
	hub.SetHandler(dispatcher)
	go hub.Run()

	handler := httpHandler.NewHandler(hub, dispatcher, cfg)

	wsLimiter := middleware.NewIPRateLimiter(cfg.RateLimitWS, 10)
	apiLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAPI, 20)

	mux := http.NewServeMux()

	// Static client files
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))

	// WebSocket route with rate limiting
	mux.HandleFunc("/ws", middleware.RateLimitFunc(wsLimiter, handler.HandleWebSocket))

	// API routes
	mux.HandleFunc("/api/rooms", middleware.RateLimitFunc(apiLimiter, handler.HandleRooms))
	mux.HandleFunc("/healthz", handler.HandleHealth)

	securedHandler := middleware.SecurityHeaders(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      securedHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("pokoje chat running at http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
