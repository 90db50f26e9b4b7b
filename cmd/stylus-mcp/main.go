package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylusarm/stylus-mcp/internal/arm"
	"github.com/stylusarm/stylus-mcp/internal/capture"
	"github.com/stylusarm/stylus-mcp/internal/config"
	"github.com/stylusarm/stylus-mcp/internal/eventlog"
	"github.com/stylusarm/stylus-mcp/internal/gateway"
	"github.com/stylusarm/stylus-mcp/internal/server"
)

const serverName = "stylus-mcp"

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("%s %s\n", serverName, Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Printf("%s - MCP gateway for the stylus arm\n", serverName)
			fmt.Println()
			fmt.Printf("Usage: %s [options]\n", serverName)
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  STYLUS_MCP_CONFIG       Path to a YAML config file")
			fmt.Println("  STYLUS_MCP_LISTEN       HTTP listen address (default :3777)")
			fmt.Println("  STYLUS_MCP_LOG_LEVEL    zerolog level (default info)")
			fmt.Println("  STYLUS_MCP_ARM_ADDRESS  Arm control API address")
			fmt.Println("  STYLUS_MCP_ARM_PORT     Arm serial port name")
			fmt.Println()
			fmt.Println("The gateway serves the streaming transport on /mcp, the")
			fmt.Println("legacy stream transport on /sse + /message, and /health.")
			return
		}
	}

	cfg, err := config.Load(os.Getenv("STYLUS_MCP_CONFIG"))
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Config error: unknown log level %q", cfg.LogLevel)
	}

	events := eventlog.New(os.Stderr, level)

	client := arm.NewClient(cfg.Timing.HTTPTimeout())
	state := arm.NewState(cfg.ArmAddress, cfg.ArmPort)
	ctrl := arm.NewController(state, client, arm.Timing{
		Settle:       cfg.Timing.SettleDelay(),
		InterCommand: cfg.Timing.InterCommandDelay(),
		ClickHold:    cfg.Timing.ClickHold(),
	}, events)

	// The rendering collaborator attaches in-process when this server is
	// embedded; standalone, capture reports unavailable.
	frames := capture.NewCorrelator(nil, cfg.Timing.CaptureTimeout(), cfg.MaxFrameWidth)

	gw := gateway.New(serverName, Version, func() *server.Server {
		return server.New(serverName, Version, ctrl, frames, events)
	}, events)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           gw.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		events.Info("gateway", fmt.Sprintf("listening on %s", cfg.Listen))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
		return
	}

	events.Info("gateway", "shutting down")
	gw.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}

	// Leave the arm parked and the port closed.
	if err := ctrl.Disconnect(shutdownCtx); err != nil {
		log.Printf("Arm disconnect: %v", err)
	}
}
