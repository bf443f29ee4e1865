package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/syllabus/views"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		msg := "Error: " + errorText(err)
		if views.IsTerminal(os.Stderr) {
			msg = views.StyleRed.Render(msg)
		}
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}
