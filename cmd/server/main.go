/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Virtus coin engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and optional TOML config file
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Configure HTTP router
  5. Start link expiry reaper
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to TOML config file (optional; flags override)
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: virtus.db)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the reaper
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/virtus.db"

  # Run with config file
  ./server -config=./virtus.toml

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/reaper.go: Background link expiry sweep
  - config/config.go: TOML configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/virtus/coin-engine/api"
	"github.com/virtus/coin-engine/coin"
	"github.com/virtus/coin-engine/config"
	"github.com/virtus/coin-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "Path to TOML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	// Configuration: defaults, then file, then flags
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}

	// Initialize store
	store, err := sqlite.New(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	linkTTL, err := cfg.LinkTTL()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	sweepInterval, err := cfg.SweepInterval()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize handler
	clock := coin.SystemClock{}
	handler := api.NewHandler(store, clock, coin.LogNotifier{})
	handler.Links.TTL = linkTTL

	// Create router
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	// Start link reaper
	reaper := api.NewLinkReaper(store, clock)
	reaper.SweepInterval = sweepInterval
	reaper.Start()
	defer reaper.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", cfg.Server.Port)
		log.Printf("🪙 API available at http://localhost:%d/api", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
