// Command setu is a terminal client for the emissions backend. It manages
// the organization hierarchy, submits emission logs, and prints the same
// analytics and recommendations the dashboard shows.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
