// Package main provides the moodtrail command-line client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/moodtrail/moodtrail/internal/cli"
	domainerrors "github.com/moodtrail/moodtrail/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", domainerrors.UserMessage(err, err.Error()))
		stop()
		os.Exit(1)
	}
}
