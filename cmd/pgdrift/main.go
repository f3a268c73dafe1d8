package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pgdrift/pgdrift/pkg/cmd"
)

// NB: These are set by GoReleaser during a build.
var (
	version string
	commit  string
	date    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, cmd.Version{Version: version, Commit: commit, Date: date}, os.Args); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}
