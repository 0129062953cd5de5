package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/andresuchdata/salesdash/internal/app"
	"github.com/andresuchdata/salesdash/internal/config"
	"github.com/andresuchdata/salesdash/internal/drive"
	"github.com/andresuchdata/salesdash/internal/source"
	"github.com/andresuchdata/salesdash/pkg/logger"
	"github.com/gorilla/mux"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.SetLevel(cfg.Log.Level)
	ctx := context.Background()

	// Initialize Google Drive service
	creds, err := source.Credentials(cfg.Source)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to read Google credentials")
	}
	driveService, err := drive.NewService(ctx, creds)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}

	// Initialize the dashboard so refreshes reach the same source the server reads
	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize dashboard")
	}
	defer application.Close()

	refresher := drive.RefreshFunc(func(ctx context.Context) (any, error) {
		return application.Dashboard.Refresh(ctx)
	})

	// Create router
	r := mux.NewRouter()

	// Register routes
	driveHandler := drive.NewHandler(driveService, refresher)
	driveHandler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.AdminPort)
	logger.Log.Info().Str("addr", addr).Msg("Admin server starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Log.Fatal().Err(err).Msg("Admin server stopped")
	}
}
