package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/xref/internal/mcptools"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("xref serve", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:8417", "listen address for the MCP server")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := mcptools.NewXrefService()
	defer svc.Close()

	return mcptools.RunMCPServer(ctx, svc, *addr)
}
