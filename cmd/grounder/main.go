package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/futig/report-grounder/internal/builder"
	"github.com/futig/report-grounder/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, release := cli.NewRootCmd(func(environment string) (cli.Service, func(), error) {
		p, err := builder.BuildCLI(environment)
		if err != nil {
			return nil, nil, err
		}
		return p.Usecase, p.Close, nil
	})

	err := root.ExecuteContext(ctx)
	release()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
