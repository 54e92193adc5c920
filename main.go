package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpadapter "github.com/chatrelay/chatrelay/adapters/http"
	"github.com/chatrelay/chatrelay/adapters/llm"
	"github.com/chatrelay/chatrelay/adapters/websocket"
	"github.com/chatrelay/chatrelay/config"
	"github.com/chatrelay/chatrelay/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	geminiLlm := llm.NewGeminiClient(context.Background(), cfg.Model)
	relay := usecase.NewRelayService(geminiLlm)

	wsServer := websocket.NewServer(relay)
	wsServer.RunWebsocketHub()

	chatHandler := httpadapter.NewChatHandler(relay)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())

	// The browser client is served from anywhere during development.
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
		},
	}))

	e.Use(middleware.BodyLimit("1MB"))

	e.GET("/ws", wsServer.Handler)

	api := e.Group("/api")
	api.GET("/health", chatHandler.HealthCheck)
	api.POST("/chat", chatHandler.Chat)

	go func() {
		log.Println("Starting server on :" + cfg.Port)
		log.Println("Available endpoints:")
		log.Println("  GET  /api/health - Health check")
		log.Println("  POST /api/chat   - Relay one chat turn")
		log.Println("  GET  /ws         - Relay over WebSocket")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")
	wsServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
