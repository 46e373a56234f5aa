// Command gunplay plays combat scenarios headless and journals every shot,
// hit and kill they produce.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version and BuildDate can be set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
