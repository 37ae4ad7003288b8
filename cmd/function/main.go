// Package main implements the todo API as an Azure Functions custom handler.
// The Functions host forwards HTTP requests to the port named by
// FUNCTIONS_CUSTOMHANDLER_PORT with routes under the /api prefix.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/todo-api/internal/app"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("todo-api function: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Function handler configuration loaded",
		"port", cfg.Function.Port,
		"route_prefix", cfg.Function.RoutePrefix)

	a, err := app.New(cfg, l, app.Options{
		Port:   cfg.Function.Port,
		Prefix: cfg.Function.RoutePrefix,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Serve(ctx)
}
