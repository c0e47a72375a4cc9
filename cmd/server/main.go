package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogpu/gg"
	"github.com/gorilla/mux"

	"github.com/trussvision/trussvision/backend-go/internal/asset"
	"github.com/trussvision/trussvision/backend-go/internal/config"
	"github.com/trussvision/trussvision/backend-go/internal/engine"
	"github.com/trussvision/trussvision/backend-go/internal/export"
	mw "github.com/trussvision/trussvision/backend-go/internal/middleware"
	"github.com/trussvision/trussvision/backend-go/internal/session"
	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	gg.SetLogger(logger.With("component", "gg"))

	flags := engine.DisplayFlags{
		ShowDeformed:     true,
		ShowStress:       true,
		DeformationScale: cfg.DeformationScale,
	}

	hub := session.NewHub(session.HubConfig{
		MaxSessions:    cfg.MaxSessions,
		OriginPatterns: cfg.OriginPatterns(),
		Session: session.Options{
			Width:            cfg.SurfaceWidth,
			Height:           cfg.SurfaceHeight,
			DeformationScale: cfg.DeformationScale,
		},
	}, logger)
	go hub.Run()

	backgrounds := asset.NewStore(cfg.MaxBackgrounds)
	assetHandler := asset.NewHandler(backgrounds)
	renderHandler := export.NewHandler(backgrounds, flags)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": hub.Count()})
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sample", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, structure.NewSampleModel())
	}).Methods("GET")
	api.HandleFunc("/materials", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, structure.Materials())
	}).Methods("GET")
	api.HandleFunc("/render", renderHandler.Render).Methods("POST", "OPTIONS")
	api.HandleFunc("/backgrounds", assetHandler.Upload).Methods("POST", "OPTIONS")
	api.HandleFunc("/backgrounds/{id}", assetHandler.Get).Methods("GET")
	api.HandleFunc("/backgrounds/{id}", assetHandler.Delete).Methods("DELETE", "OPTIONS")

	// One editor session per connection
	r.Handle("/ws/editor", hub)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "max_sessions", cfg.MaxSessions)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
