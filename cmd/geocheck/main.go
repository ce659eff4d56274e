// Command geocheck validates geographic datasets and builds proximity
// graphs. See `geocheck --help`.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/geocheck/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "geocheck: %v\n", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
