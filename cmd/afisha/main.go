package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/afisha/events/internal/cli"
	"github.com/afisha/events/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, config.LoadClient(), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
