package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/unkn0wn-root/gqlcache/internal/cli"
)

func main() {
	cfg, err := cli.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cli.Run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		stop()
		exitf("gqlcache: %v", err)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
