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
	"github.com/joho/godotenv"

	"filedrop/internal/config"
	"filedrop/internal/domain/relay"
	"filedrop/internal/domain/session"
	"filedrop/internal/domain/transfer"
	"filedrop/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := session.NewRegistry()
	store := transfer.NewStore(cfg.UploadDir, cfg.MaxFileSize)
	hub := relay.NewHub(registry)
	tracker := transfer.NewTracker(hub)

	sessionHandler := session.NewHandler(registry, store, hub, cfg.PublicBaseURL)
	transferHandler := transfer.NewHandler(registry, store, tracker, hub)
	wsHandler := relay.NewWSHandler(hub, registry)

	sweeper := session.NewSweeper(registry, store, cfg.SessionTTL, cfg.SweepInterval)
	sweeper.Start(ctx)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", wsHandler.HandleWebSocket)

	v1 := r.Group("/api/v1")
	{
		session.RegisterRoutes(v1, sessionHandler)
		transfer.RegisterRoutes(v1, transferHandler)
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		log.Println("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("listening on %s (public url %s)", cfg.Addr, cfg.PublicBaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
