// Package main is the entry point for the hafloat CLI.
//
// hafloat moves floating IP addresses, route next hops and forwarding rules
// to the instance it runs on. It is typically invoked by a cluster manager
// or keepalived notify script when the instance becomes active.
//
// Commands: discover, apply, failover, state, version.
//
// For detailed usage information, run:
//
//	hafloat --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/hafloat/cmd/hafloat/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
