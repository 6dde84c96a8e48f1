package main

import (
	"chat-hub/infrastructure/httpapi"
	"chat-hub/infrastructure/ws"
	"chat-hub/internal"
	"chat-hub/moderation"
	"chat-hub/observability"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Hub terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := internal.NewLogger(config.LogLevel)
	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeCfg := bluge.DefaultConfig(config.BlugeFilepath)
	blugeWriter, err := bluge.OpenWriter(blugeCfg)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Repositories & runtime core
	stats := observability.NewHubStats()

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		internal.StartDebugServer(db, config.DebugPort, endpoint, internal.DefaultMapper, func() map[string]any {
			snapshot := stats.Snapshot()
			return map[string]any{
				"live_connections": snapshot.LiveConnections,
				"messages_routed":  snapshot.MessagesRouted,
				"dropped_events":   snapshot.DroppedEvents,
			}
		})
	}

	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	groupRepository := repositories.NewGroupRepository(db, logger)
	userRepository := repositories.NewUserRepository(db)
	messageIndex := repositories.NewMessageIndex(blugeWriter, logger)

	moderator, err := moderation.NewModerator(charReplacement)
	if err != nil {
		return exitConfig, fmt.Errorf("moderator init failed: %w", err)
	}

	registry := runtime.NewRegistry()
	presence := runtime.NewPresenceTracker(nil)
	router := runtime.NewRouter(logger, registry, config.SinkTimeout)
	seen := runtime.NewSeenTracker()
	dispatcher := runtime.NewDispatcher(
		logger, registry, presence, router, seen,
		groupRepository, messageRepository, &moderator, stats,
		config.BufferSize,
	)

	// 4. Workers under supervision
	broadcast := workers.NewBroadcast(logger, registry, dispatcher.Events()).
		Add(observability.NewStatsSink(stats))
	statsWorker := workers.NewStats(logger, registry, stats, config.MetricInterval)

	sup := workers.NewSupervisor(logger).Add(broadcast, statsWorker)

	// 5. Services & transports
	chatService := services.NewChatService(logger, dispatcher, messageRepository, messageIndex)
	authService := services.NewAuthService(userRepository, config.AuthTokenDuration)
	groupService := services.NewGroupService(logger, groupRepository, messageRepository)

	wsHandler := ws.NewHandler(logger, chatService, config.ConnectionBufferSize)
	apiRouter := httpapi.NewRouter(logger, authService, chatService, groupService, stats, wsHandler, config.SearchLimit)

	// 6. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	go func() {
		logger.Info("Starting workers...")
		sup.Run(ctx)
	}()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: apiRouter.Handler()}

	// Use an error channel to capture ListenAndServe() issues asynchronously.
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Final Cleanup (Graceful Shutdown)
	// Active connections get a short grace period to flush their queues.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
