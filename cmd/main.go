package main

import (
	"cine-chat/api"
	"cine-chat/auth"
	"cine-chat/internal"
	"cine-chat/moderation"
	"cine-chat/runtime"
	"cine-chat/runtime/workers"
	"cine-chat/services"
	"cine-chat/stomp"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitRuntime = 1
	exitConfig  = 2

	shutdownTimeout = 10 * time.Second
)

type configError struct{ error }

func (e configError) Unwrap() error { return e.error }

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		var cfgErr configError
		if stderrors.As(err, &cfgErr) {
			os.Exit(exitConfig)
		}
		os.Exit(exitRuntime)
	}
}

// run keeps every defer on the path to exit, main only turns the error into a code.
//
//	cine-chat              serve the chat
//	cine-chat token NAME   create NAME when missing and print a token pair
//	cine-chat rooms        print the active rooms
func run(args []string) error {
	config, err := internal.LoadConfig()
	if err != nil {
		return configError{fmt.Errorf("config error: %w", err)}
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	tokens, err := auth.NewTokenAuthority(config.JWTSecret, config.AccessTokenDuration, config.RefreshTokenDuration)
	if err != nil {
		return configError{fmt.Errorf("config error: %w", err)}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, log, config)
	if err != nil {
		return err
	}
	defer store.close()

	if len(args) > 0 {
		return runCommand(ctx, args, os.Stdout,
			services.NewAuthService(store.users, tokens),
			services.NewRoomService(log, store.rooms, store.messages, config.DefaultPageSize))
	}

	// Fan-out
	registry := runtime.NewRegistry()
	broker := runtime.NewBroker(log, registry, config.BufferSize)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewEventFanout(log, broker.Events(), registry, config.SinkTimeout),
		workers.NewChannelCapacityWorker(log, []workers.NamedChannel{
			{Name: "broker_events", Channel: broker.Events()},
		}, config.MetricInterval),
	)

	// Services
	rooms := services.NewRoomService(log, store.rooms, store.messages, config.DefaultPageSize)
	chat := services.NewChatService(log, rooms, store.messages, broker, config.RequireMembershipToSend)
	if banned := config.Banned(); len(banned) > 0 {
		replacement, _ := internal.CharacterRune(config.CensorCharacter)
		moderator, err := moderation.NewModerator(banned, replacement, log)
		if err != nil {
			return fmt.Errorf("moderator build failed: %w", err)
		}
		chat.WithModerator(moderator)
	}
	gatekeeper := auth.NewGatekeeper(log, tokens, store.users)

	// Transport
	stompServer := stomp.NewServer(log, gatekeeper, chat, broker, stomp.Options{
		SendBufferSize: config.ConnectionBufferSize,
		WriteTimeout:   config.WriteTimeout,
		PongTimeout:    config.PongTimeout,
		MaxFrameSize:   config.MaxFrameSize,
		AllowedOrigins: config.Origins(),
	})
	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              config.Address(),
		Handler:           api.NewRouter(log, gatekeeper, rooms, stompServer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		sup.Run(ctx)
	}()

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", httpServer.Addr, "storage", config.StorageDriver)
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		sup.Stop()
		<-supDone
		return err
	}

	// Hijacked WebSocket connections are not tracked by http.Server.
	stompServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown", "error", err)
	}
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")
	return nil
}
