/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the goal funding engine HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store (runs, and the result cache without Redis)
  3. Optionally connect the Redis result cache
  4. Create API handler, router and optional folder scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port       HTTP server port (default: 8080)
  -db         SQLite database path (default: goals.db)
              Use ":memory:" for in-memory database
  -redis      Redis address for the result cache (default: none)
  -cache-ttl  Redis entry lifetime (default: 24h, 0 = no expiry)
  -watch      Goals folder re-evaluated periodically (default: none)
  -interval   Scheduler interval (default: 24h)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/goals.db"

  # Redis cache and a nightly re-evaluation of ./runs
  ./server -redis=localhost:6379 -watch=./runs

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
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

	"github.com/warp/goal-engine/api"
	"github.com/warp/goal-engine/store/redis"
	"github.com/warp/goal-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "goals.db", "SQLite database path")
	redisAddr := flag.String("redis", "", "Redis address for the result cache (optional)")
	cacheTTL := flag.Duration("cache-ttl", 24*time.Hour, "Redis cache entry lifetime")
	watchDir := flag.String("watch", "", "Goals folder to re-evaluate periodically (optional)")
	interval := flag.Duration("interval", 24*time.Hour, "Scheduler interval")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store)
	handler.Cache = store

	if *redisAddr != "" {
		cache := redis.NewCache(*redisAddr, *cacheTTL)
		defer cache.Close()
		if err := cache.Ping(context.Background()); err != nil {
			log.Printf("Warning: Redis unavailable at %s, using SQLite cache: %v", *redisAddr, err)
		} else {
			handler.Cache = cache
			log.Printf("Result cache: redis %s (ttl %v)", *redisAddr, *cacheTTL)
		}
	}

	var scheduler *api.EvaluationScheduler
	if *watchDir != "" {
		scheduler = api.NewEvaluationScheduler(handler, *watchDir)
		scheduler.CheckInterval = *interval
		scheduler.Start()
	}

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
