package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collab-hub/auth"
	"collab-hub/infrastructure/httpapi"
	"collab-hub/infrastructure/ws"
	"collab-hub/internal"
	"collab-hub/moderation"
	"collab-hub/repositories"
	"collab-hub/runtime"
	"collab-hub/runtime/workers"
	"collab-hub/search"
	"collab-hub/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so deferred cleanup always executes and
// the entry point stays testable.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	commentIndex, err := search.NewCommentIndex(config.BlugeFilepath)
	if err != nil {
		return fmt.Errorf("comment index opening failed: %w", err)
	}
	defer func() { _ = commentIndex.Close() }()

	// 3. Repositories & identity
	documents := repositories.NewDocumentRepository(db, log)
	comments := repositories.NewCommentRepository(db)
	users := repositories.NewUserRepository(db)
	tokens := auth.NewTokenManager([]byte(config.AuthSecret), "collab-hub", config.AuthTokenDuration)
	verifier := auth.NewVerifier(tokens, users)
	access := auth.NewDocumentAccess(documents)

	moderator, err := moderation.NewDefaultModerator()
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	// 4. Coordination runtime
	registry := runtime.NewRegistry()
	locks := runtime.NewLockTable()
	broadcaster := runtime.NewBroadcaster(log, registry, config.SinkTimeout)
	orchestrator := runtime.NewOrchestrator(log, registry, locks, broadcaster,
		documents, comments, commentIndex, access, moderator, config.MaxCommentLength)
	collabService := services.NewCollabService(orchestrator)

	// 5. Supervised workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewHeartbeatWorker(log, registry, locks, config.HeartbeatInterval))
	sup.Add(workers.NewBadgerGCWorker(db, config.BadgerGCInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sup.Run(ctx)

	if config.DebugPort > 0 {
		internal.StartDebugServer(log, db, config.DebugPort, func() map[string]any {
			sessions, connections := registry.Counts()
			return map[string]any{
				"sessions":    sessions,
				"connections": connections,
				"locks":       locks.Count(),
			}
		})
	}

	// 6. HTTP surface: WebSocket gateway + auth endpoints
	gateway := ws.NewGateway(log, verifier, collabService,
		config.ConnectionBufferSize, config.WriteWait, config.PongWait)
	authHandler := httpapi.NewAuthHandler(log, users, tokens)

	mux := http.NewServeMux()
	mux.Handle("/ws", gateway)
	authHandler.RegisterRoutes(mux)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting coordination server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
