// ./main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/probe/cmd"
)

func main() {
	// Ctrl-C and SIGTERM cancel the context, which unwinds any polling
	// loop at its next suspension point.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
