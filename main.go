/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/prism/engine"
	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/testbed"
)

func main() {
	// capture sigterm and other system calls here
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := engine.Run(ctx, testbed.NewTestGame().Game, config.DefaultPath); err != nil {
		panic(err)
	}
}
