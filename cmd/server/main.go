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

	"github.com/Arvi89/shared-cart/config"
	"github.com/Arvi89/shared-cart/db"
	"github.com/Arvi89/shared-cart/handlers"
	"github.com/Arvi89/shared-cart/session"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(cfg.GinMode)

	// Create the in-memory room store and the session hub that owns it
	store := db.NewStore(cfg.RoomIDLength)
	transport := handlers.NewSocketTransport()
	hub := session.NewHub(store, transport, session.Options{
		GracePeriod:   cfg.GracePeriod,
		RedirectDelay: cfg.RedirectDelay,
		TeardownDelay: cfg.TeardownDelay,
		EmptyRoomTTL:  cfg.EmptyRoomTTL,
	})

	// Create room handler
	roomHandler := handlers.NewRoomHandler(hub, transport, handlers.Options{
		PingInterval:   cfg.PingInterval,
		SendBuffer:     cfg.SendBuffer,
		RequestTimeout: cfg.RequestTimeout,
	})

	// Create a new Gin router
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	roomHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	// Set up periodic cleanup for empty rooms
	g.Go(func() error {
		ticker := time.NewTicker(cfg.CleanupEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := hub.CleanupEmptyRooms(ctx); err != nil && ctx.Err() == nil {
					log.Printf("Empty room cleanup failed: %v", err)
				}
			}
		}
	})

	g.Go(func() error {
		log.Printf("Starting server on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	log.Println("Server stopped")
}
