package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "catalogctl:", err)
		os.Exit(1)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	a := &appState{in: in, out: out}

	return &cli.App{
		Name:  "catalogctl",
		Usage: "query and edit the product catalog through the configured store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "store", Usage: "store driver: memory, remote or postgres (overrides config)"},
			&cli.StringFlag{Name: "base-url", Usage: "catalog service base URL for the remote driver, e.g. http://localhost:8082/products"},
			&cli.BoolFlag{Name: "latency", Usage: "simulate store latency with the memory driver"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "log level"},
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "optional YAML config file"},
		},
		Before: a.open,
		After:  a.close,
		Commands: []*cli.Command{
			listCommand(a),
			getCommand(a),
			searchCommand(a),
			createCommand(a),
			updateCommand(a),
			deleteCommand(a),
			expensiveCommand(a),
			rangeCommand(a),
			browseCommand(a),
		},
	}
}
