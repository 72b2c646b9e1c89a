package main

import (
	"context"
	"os/signal"
	"syscall"

	"sftpls.dev/cli/internal/interfaces/cli"
	"sftpls.dev/cli/internal/interfaces/di"
)

func main() {
	container := di.NewContainer()

	// A second signal falls through to the default handler and exits at once
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		stop()
	}()

	cli.Execute(ctx, container.GetCLIContainer())
}
