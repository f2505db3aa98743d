package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/lotline/cmd/lotline/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("lotline failed", "error", err)
		stop()
		os.Exit(1)
	}
}
