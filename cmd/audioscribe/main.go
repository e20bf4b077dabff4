package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"audioscribe/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
			if errors.Is(err, services.ErrConfiguration) || errors.Is(err, services.ErrExternalTool) {
				fmt.Fprintf(os.Stderr, "hint: %s\n", services.Hint(err))
			}
		}
		stop()
		os.Exit(1)
	}
}
